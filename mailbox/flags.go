package mailbox

import (
	"os"

	"github.com/spilled-ink/mailterm/internal/boxfile"
)

// Per-message Seen state is a supplemental feature (spec.md §12) not
// present in the distilled spec but present in the teacher's Msg.Flags:
// a one-byte sidecar file next to the entry, "1" meaning seen. Its
// absence means unseen; its content is otherwise not interpreted.

func flagPath(e *boxfile.Entry) string {
	return e.Path() + ".flags"
}

func readFlag(e *boxfile.Entry) bool {
	b, err := os.ReadFile(flagPath(e))
	return err == nil && len(b) > 0 && b[0] == '1'
}

func writeFlag(e *boxfile.Entry, seen bool) {
	if !seen {
		return
	}
	os.WriteFile(flagPath(e), []byte("1"), 0o644)
}

func removeFlagFile(e *boxfile.Entry) {
	os.Remove(flagPath(e))
}
