package render

import "testing"

func TestPlainTextStripsTags(t *testing.T) {
	got, err := PlainText("<html><body><p>hello</p><p>world</p></body></html>")
	if err != nil {
		t.Fatalf("PlainText: %v", err)
	}
	want := "\nhello\nworld"
	if got != want {
		t.Errorf("PlainText=%q, want %q", got, want)
	}
}
