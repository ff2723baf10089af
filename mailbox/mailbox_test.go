package mailbox

import (
	"testing"
	"time"

	"github.com/spilled-ink/mailterm/email"
	"github.com/spilled-ink/mailterm/internal/boxfile"
)

func mustAddr(t *testing.T, local, domain string) email.Address {
	t.Helper()
	a, err := email.NewAddress("", local, domain)
	if err != nil {
		t.Fatalf("NewAddress: %v", err)
	}
	return a
}

func newTestMailbox(t *testing.T) (*Mailbox, *boxfile.Store) {
	t.Helper()
	store, err := boxfile.Open(t.TempDir())
	if err != nil {
		t.Fatalf("boxfile.Open: %v", err)
	}
	box, err := store.CreateBox("")
	if err != nil {
		t.Fatalf("CreateBox: %v", err)
	}
	mb, err := Load(box, store.Index)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return mb, store
}

func composeAt(t *testing.T, mb *Mailbox, when time.Time, subject string) {
	t.Helper()
	from := mustAddr(t, "a", "b")
	to := []email.Address{mustAddr(t, "c", "d")}
	msg, err := email.NewSinglepartText(from, to, subject, when, "hello")
	if err != nil {
		t.Fatalf("NewSinglepartText: %v", err)
	}
	if err := mb.Compose(msg); err != nil {
		t.Fatalf("Compose: %v", err)
	}
}

func TestMailboxSortedDescendingByDate(t *testing.T) {
	mb, store := newTestMailbox(t)
	defer store.Close()

	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	composeAt(t, mb, older, "old")
	composeAt(t, mb, newer, "new")

	if mb.Count() != 2 {
		t.Fatalf("Count()=%d, want 2", mb.Count())
	}
	first, err := mb.Read(1)
	if err != nil {
		t.Fatalf("Read(1): %v", err)
	}
	subj, _ := first.Subject()
	if subj != "new" {
		t.Errorf("Read(1) subject=%q, want %q (descending by date)", subj, "new")
	}
}

func TestMailboxReadMarksSeen(t *testing.T) {
	mb, store := newTestMailbox(t)
	defer store.Close()

	composeAt(t, mb, time.Now(), "hi")
	if seen, _ := mb.Seen(1); seen {
		t.Errorf("new message should start unseen")
	}
	if _, err := mb.Read(1); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if seen, _ := mb.Seen(1); !seen {
		t.Errorf("message should be seen after Read")
	}
}

func TestMailboxDelete(t *testing.T) {
	mb, store := newTestMailbox(t)
	defer store.Close()

	composeAt(t, mb, time.Now(), "hi")
	if err := mb.Delete(1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if mb.Count() != 0 {
		t.Errorf("Count()=%d, want 0 after Delete", mb.Count())
	}
}

func TestMailboxReadOutOfRange(t *testing.T) {
	mb, store := newTestMailbox(t)
	defer store.Close()

	if _, err := mb.Read(1); err == nil {
		t.Errorf("expected error reading empty mailbox")
	}
	if _, err := mb.Read(0); err == nil {
		t.Errorf("expected error for n=0 (spec indices are 1-based)")
	}
}

func TestLoadUsesCachedSummaryWithoutDecoding(t *testing.T) {
	mb, store := newTestMailbox(t)
	defer store.Close()

	composeAt(t, mb, time.Now(), "hi")
	entry := mb.messages[0].entry

	// Reload the same box; the entry's row in store.Index is fresh
	// (Compose populated it), so loadMessage should pick up the
	// cached date without touching msg at all.
	reloaded, err := Load(mb.box, store.Index)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reloaded.Count() != 1 {
		t.Fatalf("Count()=%d, want 1", reloaded.Count())
	}
	if reloaded.messages[0].msg != nil {
		t.Errorf("Load decoded an entry whose cache row was fresh")
	}

	// Peek still produces the right message, decoding lazily.
	got, err := reloaded.Peek(1)
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	subj, _ := got.Subject()
	if subj != "hi" {
		t.Errorf("Peek subject=%q, want %q", subj, "hi")
	}
	if reloaded.messages[0].msg == nil {
		t.Errorf("Peek did not decode lazily")
	}

	// Delete forgets the index row.
	if err := mb.Delete(1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found, err := store.Index.Lookup(entry.Path()); err != nil {
		t.Fatalf("Lookup: %v", err)
	} else if found {
		t.Errorf("Lookup found a row for a deleted entry")
	}
}
