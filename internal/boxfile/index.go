package boxfile

import (
	"fmt"
	"path/filepath"
	"time"

	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"
)

// Index is a per-base-directory summary cache: mtime, byte size and a
// pre-parsed send-date for every entry file, so mailbox.Load can sort
// a mailbox by Date without decoding every entry's headers. It is a
// cache, never a source of truth: a missing or stale row just costs a
// full decode, it never changes what a Mailbox contains.
type Index struct {
	pool *sqlitex.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	path TEXT PRIMARY KEY,
	mod_time INTEGER NOT NULL,
	size INTEGER NOT NULL,
	send_date INTEGER NOT NULL,
	subject TEXT NOT NULL
);
`

// OpenIndex opens (creating if absent) the sqlite index file that
// sits alongside baseDir's mailbox directories.
func OpenIndex(baseDir string) (*Index, error) {
	path := filepath.Join(baseDir, ".mailterm-index.sqlite3")
	pool, err := sqlitex.Open(path, 0, 4)
	if err != nil {
		return nil, fmt.Errorf("boxfile: open index: %v", err)
	}
	conn := pool.Get(nil)
	defer pool.Put(conn)
	if err := sqlitex.ExecScript(conn, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("boxfile: create schema: %v", err)
	}
	return &Index{pool: pool}, nil
}

// Close releases the index's pooled connections.
func (idx *Index) Close() error {
	return idx.pool.Close()
}

// Summary is a cached entry row.
type Summary struct {
	ModTime  time.Time
	Size     int64
	SendDate time.Time
	Subject  string
}

// Lookup returns the cached summary for path, if present.
func (idx *Index) Lookup(path string) (Summary, bool, error) {
	conn := idx.pool.Get(nil)
	defer idx.pool.Put(conn)

	var sum Summary
	found := false
	err := sqlitex.Exec(conn,
		`SELECT mod_time, size, send_date, subject FROM entries WHERE path = ?;`,
		func(stmt *sqlite.Stmt) error {
			found = true
			sum = Summary{
				ModTime:  time.Unix(stmt.GetInt64("mod_time"), 0),
				Size:     stmt.GetInt64("size"),
				SendDate: time.Unix(stmt.GetInt64("send_date"), 0),
				Subject:  stmt.GetText("subject"),
			}
			return nil
		},
		path,
	)
	if err != nil {
		return Summary{}, false, fmt.Errorf("boxfile: index lookup: %v", err)
	}
	return sum, found, nil
}

// Store upserts path's summary row.
func (idx *Index) Store(path string, sum Summary) error {
	conn := idx.pool.Get(nil)
	defer idx.pool.Put(conn)

	err := sqlitex.Exec(conn,
		`INSERT INTO entries (path, mod_time, size, send_date, subject) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET mod_time=excluded.mod_time, size=excluded.size,
			send_date=excluded.send_date, subject=excluded.subject;`,
		nil,
		path, sum.ModTime.Unix(), sum.Size, sum.SendDate.Unix(), sum.Subject,
	)
	if err != nil {
		return fmt.Errorf("boxfile: index store: %v", err)
	}
	return nil
}

// Forget removes path's cached row, e.g. after its entry is deleted.
func (idx *Index) Forget(path string) error {
	conn := idx.pool.Get(nil)
	defer idx.pool.Put(conn)

	err := sqlitex.Exec(conn, `DELETE FROM entries WHERE path = ?;`, nil, path)
	if err != nil {
		return fmt.Errorf("boxfile: index forget: %v", err)
	}
	return nil
}
