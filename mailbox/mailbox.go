// Package mailbox holds the in-memory view of one named collection
// of messages, backed on disk by a boxfile.Box.
package mailbox

import (
	"fmt"
	"sort"
	"time"

	"github.com/spilled-ink/mailterm/email"
	"github.com/spilled-ink/mailterm/internal/boxfile"
	"github.com/spilled-ink/mailterm/internal/merr"
)

// message pairs an on-disk entry with its decoded form, plus the
// supplemental per-message state spec.md's distillation drops:
// whether it has been read. msg is nil until something needs more
// than the entry's Date: a cache hit against idx lets Load learn date
// (for sort order) without paying for a full decode, and decoded()
// fills msg in lazily the first time a caller actually wants the
// message's content.
type message struct {
	entry *boxfile.Entry
	date  time.Time
	msg   *email.Message
	seen  bool
}

// Mailbox is a named, ordered collection of messages, sorted strictly
// descending by Date (ties broken by original storage order, i.e. a
// stable sort).
type Mailbox struct {
	name     string
	box      *boxfile.Box
	idx      *boxfile.Index
	messages []message
}

// Name is the mailbox's logical name ("" for the one mandatory inbox).
func (mb *Mailbox) Name() string { return mb.name }

// Count is the number of messages the mailbox holds.
func (mb *Mailbox) Count() int { return len(mb.messages) }

// Load builds a Mailbox from box's stored entries, consulting idx (if
// non-nil) for each entry's cached summary: a cache hit whose mod
// time and size still match the on-disk file supplies the Date
// needed for sort order without decoding the entry at all; a miss or
// stale row falls back to a full decode, which also refreshes idx.
func Load(box *boxfile.Box, idx *boxfile.Index) (*Mailbox, error) {
	entries, err := box.Entries()
	if err != nil {
		return nil, err
	}

	mb := &Mailbox{name: box.Name(), box: box, idx: idx}
	for _, e := range entries {
		m, err := loadMessage(e, idx)
		if err != nil {
			return nil, err
		}
		mb.messages = append(mb.messages, m)
	}
	mb.resort()
	return mb, nil
}

// loadMessage resolves e's date from idx's cache when the cached row
// is still fresh, decoding e in full only on a miss or a stale row.
func loadMessage(e *boxfile.Entry, idx *boxfile.Index) (message, error) {
	seen := readFlag(e)

	if idx != nil {
		if sum, found, err := idx.Lookup(e.Path()); err == nil && found {
			if fresh, err := entryMatches(e, sum); err == nil && fresh {
				return message{entry: e, date: sum.SendDate, seen: seen}, nil
			}
		}
	}

	msg, err := decodeEntry(e)
	if err != nil {
		return message{}, err
	}
	date, _ := msg.Date()
	cacheSummary(idx, e, msg)
	return message{entry: e, date: date, msg: msg, seen: seen}, nil
}

// entryMatches reports whether e's current mod time and size still
// match sum, i.e. whether sum is safe to use without re-decoding e.
// The index stores mod_time as a unix-second INTEGER column, so the
// comparison is at second granularity too.
func entryMatches(e *boxfile.Entry, sum boxfile.Summary) (bool, error) {
	modTime, err := e.ModTime()
	if err != nil {
		return false, err
	}
	if modTime.Unix() != sum.ModTime.Unix() {
		return false, nil
	}
	size, err := e.Size()
	if err != nil {
		return false, err
	}
	return size == sum.Size, nil
}

func decodeEntry(e *boxfile.Entry) (*email.Message, error) {
	content, err := e.Content()
	if err != nil {
		return nil, err
	}
	msg, err := email.DecodeEntry(string(content))
	if err != nil {
		return nil, fmt.Errorf("mailbox: decode %s: %w", e.Path(), err)
	}
	return msg, nil
}

// decoded returns the i'th message's full decoded form, decoding and
// caching it lazily if Load only had a cached summary for it.
func (mb *Mailbox) decoded(i int) (*email.Message, error) {
	if mb.messages[i].msg != nil {
		return mb.messages[i].msg, nil
	}
	msg, err := decodeEntry(mb.messages[i].entry)
	if err != nil {
		return nil, err
	}
	mb.messages[i].msg = msg
	cacheSummary(mb.idx, mb.messages[i].entry, msg)
	return msg, nil
}

// cacheSummary records e's mod time, size, date and subject into idx,
// best-effort: the index is a cache, a write failure never affects
// the loaded Mailbox.
func cacheSummary(idx *boxfile.Index, e *boxfile.Entry, msg *email.Message) {
	if idx == nil {
		return
	}
	modTime, err := e.ModTime()
	if err != nil {
		return
	}
	size, err := e.Size()
	if err != nil {
		return
	}
	date, err := msg.Date()
	if err != nil {
		return
	}
	subject, _ := msg.Subject()
	idx.Store(e.Path(), boxfile.Summary{
		ModTime:  modTime,
		Size:     size,
		SendDate: date,
		Subject:  subject,
	})
}

// resolveIndex converts spec.md's 1-based message number to a slice
// index, failing OutOfRange outside [1, count].
func (mb *Mailbox) resolveIndex(n int) (int, error) {
	if n < 1 || n > len(mb.messages) {
		return 0, fmt.Errorf("mailbox: message %d: %w", n, merr.ErrOutOfRange)
	}
	return n - 1, nil
}

func (mb *Mailbox) resort() {
	sort.SliceStable(mb.messages, func(i, j int) bool {
		return mb.messages[i].date.After(mb.messages[j].date)
	})
}

// Read returns the n'th (1-based) message in the mailbox's sorted
// order, marking it seen.
func (mb *Mailbox) Read(n int) (*email.Message, error) {
	i, err := mb.resolveIndex(n)
	if err != nil {
		return nil, err
	}
	msg, err := mb.decoded(i)
	if err != nil {
		return nil, err
	}
	mb.messages[i].seen = true
	writeFlag(mb.messages[i].entry, true)
	return msg, nil
}

// Peek returns the n'th (1-based) message without marking it seen,
// for listings (cmd/mailterm's LSE) that must not mutate read state.
func (mb *Mailbox) Peek(n int) (*email.Message, error) {
	i, err := mb.resolveIndex(n)
	if err != nil {
		return nil, err
	}
	return mb.decoded(i)
}

// Seen reports whether the n'th (1-based) message has been read.
func (mb *Mailbox) Seen(n int) (bool, error) {
	i, err := mb.resolveIndex(n)
	if err != nil {
		return false, err
	}
	return mb.messages[i].seen, nil
}

// EncodedSize returns the n'th (1-based) message's on-disk encoded
// size in bytes, computed on the fly (spec.md §12 supplement,
// mirroring the teacher's RFC822.SIZE / Msg.EncodedSize display).
func (mb *Mailbox) EncodedSize(n int) (int, error) {
	i, err := mb.resolveIndex(n)
	if err != nil {
		return 0, err
	}
	msg, err := mb.decoded(i)
	if err != nil {
		return 0, err
	}
	return len(email.EncodeMessage(msg)), nil
}

// Compose appends msg to the mailbox, storing it to disk first and
// only then updating the in-memory sorted order, per the
// storage-before-mutation ordering invariant.
func (mb *Mailbox) Compose(msg *email.Message) error {
	content := email.EncodeMessage(msg)
	entry, err := mb.box.Append([]byte(content))
	if err != nil {
		return err
	}
	date, _ := msg.Date()
	mb.messages = append(mb.messages, message{entry: entry, date: date, msg: msg})
	cacheSummary(mb.idx, entry, msg)
	mb.resort()
	return nil
}

// Delete removes the n'th (1-based) message from disk, forgets its
// cached index row, and drops it from the mailbox's in-memory order.
func (mb *Mailbox) Delete(n int) error {
	i, err := mb.resolveIndex(n)
	if err != nil {
		return err
	}
	entry := mb.messages[i].entry
	if err := entry.Delete(); err != nil {
		return err
	}
	removeFlagFile(entry)
	if mb.idx != nil {
		mb.idx.Forget(entry.Path())
	}
	mb.messages = append(mb.messages[:i], mb.messages[i+1:]...)
	return nil
}
