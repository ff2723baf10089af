// Package boxfile is the storage utility spec.md §6 describes: a
// directory tree with one subdirectory per mailbox and one file per
// message entry. It is the on-disk counterpart of mailbox.Mailbox and
// mua.Mua, which hold the decoded, in-memory view of the same data.
package boxfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"crawshaw.io/iox"
	"github.com/google/uuid"
)

// inboxDir is the on-disk subdirectory reserved for the mailbox whose
// logical name is the empty string, mirroring the teacher's own
// reservation of "INBOX" as the one mailbox every account has.
const inboxDir = "INBOX"

const entrySuffix = ".eml"

// Store is a base directory materialised as a set of Boxes, plus the
// buffered-write and index-cache machinery shared across them.
type Store struct {
	BaseDir string
	Filer   *iox.Filer
	Index   *Index // may be nil if the index could not be opened
}

// Open prepares baseDir for use, creating it if necessary, and opens
// (or rebuilds) its summary index.
func Open(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("boxfile: open %s: %v", baseDir, err)
	}
	filer := iox.NewFiler(0)

	idx, err := OpenIndex(baseDir)
	if err != nil {
		// The index is a cache, never a source of truth: a failure to
		// open it is not fatal, it just means every Mailbox load will
		// pay full decode cost.
		idx = nil
	}

	return &Store{BaseDir: baseDir, Filer: filer, Index: idx}, nil
}

// Close releases the store's resources.
func (s *Store) Close() error {
	if s.Index != nil {
		s.Index.Close()
	}
	return nil
}

// Box is one mailbox's on-disk directory.
type Box struct {
	store *Store
	name  string
	dir   string
}

// Name is the mailbox name this box backs ("" for the reserved INBOX
// directory).
func (b *Box) Name() string { return b.name }

// Boxes lists the mailboxes present under the store's base directory,
// ascending by name, mirroring the Mua invariant that "mailboxes must
// mirror the set of boxes present in base_dir."
func (s *Store) Boxes() ([]*Box, error) {
	ents, err := os.ReadDir(s.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("boxfile: list %s: %v", s.BaseDir, err)
	}
	var boxes []*Box
	for _, e := range ents {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		logical := name
		if name == inboxDir {
			logical = ""
		}
		boxes = append(boxes, &Box{
			store: s,
			name:  logical,
			dir:   filepath.Join(s.BaseDir, name),
		})
	}
	sort.Slice(boxes, func(i, j int) bool { return boxes[i].name < boxes[j].name })
	return boxes, nil
}

// BoxExists reports whether name's mailbox directory is still present
// on disk, for callers (mua.Mua.Current) that must detect a mailbox
// deleted by some other process since it was last listed.
func (s *Store) BoxExists(name string) (bool, error) {
	dirName := name
	if name == "" {
		dirName = inboxDir
	}
	_, err := os.Stat(filepath.Join(s.BaseDir, dirName))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("boxfile: stat box %q: %v", name, err)
}

// CreateBox makes a new, empty mailbox directory for name.
func (s *Store) CreateBox(name string) (*Box, error) {
	dirName := name
	if name == "" {
		dirName = inboxDir
	}
	dir := filepath.Join(s.BaseDir, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("boxfile: create box %q: %v", name, err)
	}
	return &Box{store: s, name: name, dir: dir}, nil
}

// Entries lists the box's stored messages, in no particular order;
// callers that need date order (mailbox.Mailbox) sort them.
func (b *Box) Entries() ([]*Entry, error) {
	ents, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, fmt.Errorf("boxfile: entries %s: %v", b.dir, err)
	}
	var entries []*Entry
	for _, e := range ents {
		if e.IsDir() || filepath.Ext(e.Name()) != entrySuffix {
			continue
		}
		entries = append(entries, &Entry{path: filepath.Join(b.dir, e.Name())})
	}
	return entries, nil
}

// Append writes content as a new entry in the box, buffering the
// write through the store's Filer before it lands on disk, the way
// the teacher buffers in-flight message bodies before committing them.
func (b *Box) Append(content []byte) (*Entry, error) {
	buf := b.store.Filer.BufferFile(0)
	defer buf.Close()
	if _, err := buf.Write(content); err != nil {
		return nil, fmt.Errorf("boxfile: append: %v", err)
	}
	if _, err := buf.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("boxfile: append: %v", err)
	}

	path := filepath.Join(b.dir, uuid.NewString()+entrySuffix)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("boxfile: append: %v", err)
	}
	if _, err := io.Copy(f, buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("boxfile: append: %v", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("boxfile: append: %v", err)
	}
	return &Entry{path: path}, nil
}

// Entry is one stored message file.
type Entry struct {
	path string
}

// Path is the entry's on-disk path, used as the index cache key.
func (e *Entry) Path() string { return e.path }

// Content reads the entry's full stored text.
func (e *Entry) Content() ([]byte, error) {
	b, err := os.ReadFile(e.path)
	if err != nil {
		return nil, fmt.Errorf("boxfile: content %s: %v", e.path, err)
	}
	return b, nil
}

// ModTime is the entry file's modification time, used to validate an
// index cache entry.
func (e *Entry) ModTime() (time.Time, error) {
	fi, err := os.Stat(e.path)
	if err != nil {
		return time.Time{}, fmt.Errorf("boxfile: stat %s: %v", e.path, err)
	}
	return fi.ModTime(), nil
}

// Size is the entry file's byte size, used alongside ModTime to
// validate an index cache entry.
func (e *Entry) Size() (int64, error) {
	fi, err := os.Stat(e.path)
	if err != nil {
		return 0, fmt.Errorf("boxfile: stat %s: %v", e.path, err)
	}
	return fi.Size(), nil
}

// Delete removes the entry from disk.
func (e *Entry) Delete() error {
	if err := os.Remove(e.path); err != nil {
		return fmt.Errorf("boxfile: delete %s: %v", e.path, err)
	}
	return nil
}
