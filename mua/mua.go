// Package mua is the top-level mail user agent: a set of named
// mailboxes materialised from a base directory, with a single
// selected mailbox and the operations that mediate persistence.
package mua

import (
	"fmt"
	"sort"

	"github.com/spilled-ink/mailterm/email"
	"github.com/spilled-ink/mailterm/internal/boxfile"
	"github.com/spilled-ink/mailterm/internal/merr"
	"github.com/spilled-ink/mailterm/mailbox"
)

// Mua materialises mailboxes from storage, tracks the selected
// mailbox by name, and mediates persistence through a boxfile.Store.
//
// spec.md §4.4 says selected is "an optional mailbox name" where ""
// means "none", but §3 also allows a mailbox whose name is "" to
// exist — a genuine ambiguity in the source spec (see DESIGN.md).
// This Mua resolves it by keeping selectedSet alongside selected, so
// the one allowed empty-named mailbox can still be selected and
// distinguished from "nothing selected".
type Mua struct {
	baseDir     string
	store       *boxfile.Store
	mailboxes   []*mailbox.Mailbox
	selected    string
	selectedSet bool
}

// New builds a Mua from baseDir, loading every mailbox the directory
// already contains.
func New(baseDir string) (*Mua, error) {
	store, err := boxfile.Open(baseDir)
	if err != nil {
		return nil, err
	}

	boxes, err := store.Boxes()
	if err != nil {
		store.Close()
		return nil, err
	}
	if len(boxes) == 0 {
		// Every account has at least the one mandatory inbox.
		box, err := store.CreateBox("")
		if err != nil {
			store.Close()
			return nil, err
		}
		boxes = []*boxfile.Box{box}
	}

	m := &Mua{baseDir: baseDir, store: store}
	for _, box := range boxes {
		mb, err := mailbox.Load(box, store.Index)
		if err != nil {
			store.Close()
			return nil, err
		}
		m.mailboxes = append(m.mailboxes, mb)
	}
	sort.Slice(m.mailboxes, func(i, j int) bool {
		return m.mailboxes[i].Name() < m.mailboxes[j].Name()
	})
	return m, nil
}

// Close releases the Mua's storage resources.
func (m *Mua) Close() error {
	return m.store.Close()
}

// Mailboxes lists the Mua's mailboxes, ascending by name.
func (m *Mua) Mailboxes() []*mailbox.Mailbox { return m.mailboxes }

// Select sets the selected mailbox to the index'th (1-based) mailbox.
func (m *Mua) Select(index int) error {
	if index < 1 || index > len(m.mailboxes) {
		return fmt.Errorf("mua: select %d: %w", index, merr.ErrOutOfRange)
	}
	m.selected = m.mailboxes[index-1].Name()
	m.selectedSet = true
	return nil
}

// Current returns the selected mailbox: NoSelection if nothing is
// selected, NoSuchMailbox if the selected name no longer matches any
// mailbox, including the case where it was deleted externally since
// New or Select last observed it (spec.md Testable Property scenario
// F). Current always re-checks the name against storage rather than
// trusting the in-memory mailboxes slice alone.
func (m *Mua) Current() (*mailbox.Mailbox, error) {
	if !m.selectedSet {
		return nil, fmt.Errorf("mua: current: %w", merr.ErrNoSelection)
	}
	exists, err := m.store.BoxExists(m.selected)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("mua: current: %w", merr.ErrNoSuchMailbox)
	}
	for _, mb := range m.mailboxes {
		if mb.Name() == m.selected {
			return mb, nil
		}
	}
	return nil, fmt.Errorf("mua: current: %w", merr.ErrNoSuchMailbox)
}

// ReadMessage delegates to the selected mailbox's Read.
func (m *Mua) ReadMessage(n int) (*email.Message, error) {
	cur, err := m.Current()
	if err != nil {
		return nil, err
	}
	return cur.Read(n)
}

// SaveMessage encodes msg, appends it to the selected box's on-disk
// entries, and only then updates the in-memory mailbox, so a storage
// failure leaves the in-memory model untouched.
func (m *Mua) SaveMessage(msg *email.Message) error {
	cur, err := m.Current()
	if err != nil {
		return err
	}
	return cur.Compose(msg)
}

// DeleteMessage resolves the n'th (1-based) message of the selected
// mailbox and removes it, storage first, then memory.
func (m *Mua) DeleteMessage(n int) error {
	cur, err := m.Current()
	if err != nil {
		return err
	}
	return cur.Delete(n)
}

// Prompt renders the REPL prompt: "[*] > " with no selection, else
// "[<name>] > ".
func (m *Mua) Prompt() string {
	if !m.selectedSet {
		return "[*] > "
	}
	return "[" + m.selected + "] > "
}
