package email

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func testDate() time.Time {
	return time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC)
}

// Scenario A: compose singlepart ASCII text.
func TestEncodeSinglepartASCII(t *testing.T) {
	from := mustAddr(t, "", "a", "b")
	to := []Address{mustAddr(t, "", "c", "d")}
	msg, err := NewSinglepartText(from, to, "hi", testDate(), "hello\n")
	if err != nil {
		t.Fatalf("NewSinglepartText: %v", err)
	}
	got := EncodeMessage(msg)
	want := "From: a@b\nTo: c@d\nSubject: hi\nDate: " + EncodeHeader(DateHeader{When: testDate()})[len("Date: "):] +
		"\nContent-Type: text/plain; charset=\"us-ascii\"\n\nhello\n"
	if got != want {
		t.Errorf("EncodeMessage:\ngot:  %q\nwant: %q", got, want)
	}
}

// Scenario B: compose singlepart non-ASCII subject.
func TestEncodeSinglepartNonASCIISubject(t *testing.T) {
	from := mustAddr(t, "", "a", "b")
	to := []Address{mustAddr(t, "", "c", "d")}
	msg, err := NewSinglepartText(from, to, "ciào", testDate(), "hello")
	if err != nil {
		t.Fatalf("NewSinglepartText: %v", err)
	}
	got := EncodeMessage(msg)
	if !strings.Contains(got, "Subject: =?utf-8?B?Y2nDoG8=?=") {
		t.Errorf("EncodeMessage missing encoded-word subject: %q", got)
	}
}

// Scenario B (variant): non-ASCII body is Base64-encoded with CTE.
func TestEncodeSinglepartNonASCIIBody(t *testing.T) {
	from := mustAddr(t, "", "a", "b")
	to := []Address{mustAddr(t, "", "c", "d")}
	msg, err := NewSinglepartText(from, to, "hi", testDate(), "ciào")
	if err != nil {
		t.Fatalf("NewSinglepartText: %v", err)
	}
	got := EncodeMessage(msg)
	if !strings.Contains(got, "Content-Transfer-Encoding: base64") {
		t.Errorf("expected base64 CTE for non-ascii body: %q", got)
	}
	if strings.Contains(got, "ciào") {
		t.Errorf("body was not base64-encoded: %q", got)
	}
}

// Scenario C: compose multipart.
func TestEncodeMultipart(t *testing.T) {
	from := mustAddr(t, "", "a", "b")
	to := []Address{mustAddr(t, "", "c", "d")}
	msg, err := NewMultipart(from, to, "hi", testDate(), "t", "<html>x</html>")
	if err != nil {
		t.Fatalf("NewMultipart: %v", err)
	}
	got := EncodeMessage(msg)
	if strings.Count(got, "\n--frontier\n") != 2 {
		t.Errorf("expected two --frontier separators, got: %q", got)
	}
	if !strings.HasSuffix(got, "\n--frontier--\n") {
		t.Errorf("expected --frontier-- terminator, got: %q", got)
	}
	if !strings.Contains(got, envelopeBody) {
		t.Errorf("expected fixed envelope body, got: %q", got)
	}
}

// Scenario D: round-trip scenario A through encode -> decode.
func TestRoundTripSinglepartASCII(t *testing.T) {
	from := mustAddr(t, "", "a", "b")
	to := []Address{mustAddr(t, "", "c", "d")}
	msg, err := NewSinglepartText(from, to, "hi", testDate(), "hello\n")
	if err != nil {
		t.Fatalf("NewSinglepartText: %v", err)
	}
	encoded := EncodeMessage(msg)
	decoded, err := DecodeEntry(encoded)
	if err != nil {
		t.Fatalf("DecodeEntry: %v", err)
	}
	assertMessagesEqual(t, msg, decoded)
}

func TestRoundTripMultipart(t *testing.T) {
	from := mustAddr(t, "", "a", "b")
	to := []Address{mustAddr(t, "", "c", "d"), mustAddr(t, "Eve", "e", "f")}
	msg, err := NewMultipart(from, to, "hi", testDate(), "plain text", "<html>hello</html>")
	if err != nil {
		t.Fatalf("NewMultipart: %v", err)
	}
	encoded := EncodeMessage(msg)
	decoded, err := DecodeEntry(encoded)
	if err != nil {
		t.Fatalf("DecodeEntry: %v", err)
	}
	assertMessagesEqual(t, msg, decoded)
}

// decode_body only recognises a Base64 body by the literal
// "PGh0bWw+" ("<html>" in Base64) marker (spec.md §9); a non-html
// part whose body is Base64 because it is non-ASCII text does not
// match that marker, so its body is not restored by DecodeEntry.
// This is a preserved source quirk, not a bug in this codec.
func TestRoundTripNonASCIIHeadersSurviveBodyQuirk(t *testing.T) {
	from := mustAddr(t, "Barry Gibbs", "bg", "example.com")
	to := []Address{mustAddr(t, "", "c", "d")}
	msg, err := NewSinglepartText(from, to, "ciào", testDate(), "ünïcödé body")
	if err != nil {
		t.Fatalf("NewSinglepartText: %v", err)
	}
	encoded := EncodeMessage(msg)
	decoded, err := DecodeEntry(encoded)
	if err != nil {
		t.Fatalf("DecodeEntry: %v", err)
	}
	if len(decoded.Parts) != 1 {
		t.Fatalf("part count: got %d, want 1", len(decoded.Parts))
	}
	for j := range msg.Parts[0].Headers {
		if !reflect.DeepEqual(msg.Parts[0].Headers[j], decoded.Parts[0].Headers[j]) {
			t.Errorf("header %d: got %#v, want %#v", j, decoded.Parts[0].Headers[j], msg.Parts[0].Headers[j])
		}
	}
	if decoded.Parts[0].Body == msg.Parts[0].Body {
		t.Errorf("expected the Base64 body to survive undecoded, got original text back")
	}
}

// A singlepart HTML body does start with the marker, so it round-trips
// exactly.
func TestRoundTripSinglepartHTML(t *testing.T) {
	from := mustAddr(t, "", "a", "b")
	to := []Address{mustAddr(t, "", "c", "d")}
	msg, err := NewSinglepartHTML(from, to, "hi", testDate(), "<html>hi</html>")
	if err != nil {
		t.Fatalf("NewSinglepartHTML: %v", err)
	}
	encoded := EncodeMessage(msg)
	decoded, err := DecodeEntry(encoded)
	if err != nil {
		t.Fatalf("DecodeEntry: %v", err)
	}
	assertMessagesEqual(t, msg, decoded)
}

func assertMessagesEqual(t *testing.T, want, got *Message) {
	t.Helper()
	if len(want.Parts) != len(got.Parts) {
		t.Fatalf("part count: got %d, want %d", len(got.Parts), len(want.Parts))
	}
	for i := range want.Parts {
		wp, gp := want.Parts[i], got.Parts[i]
		if wp.Body != gp.Body {
			t.Errorf("part %d body: got %q, want %q", i, gp.Body, wp.Body)
		}
		if len(wp.Headers) != len(gp.Headers) {
			t.Fatalf("part %d header count: got %d, want %d", i, len(gp.Headers), len(wp.Headers))
		}
		for j := range wp.Headers {
			if !headerEqual(wp.Headers[j], gp.Headers[j]) {
				t.Errorf("part %d header %d: got %#v, want %#v", i, j, gp.Headers[j], wp.Headers[j])
			}
		}
	}
}

// headerEqual compares headers structurally. Date headers compare by
// instant and zone offset: a parsed time.Time carries a different
// *time.Location value than the one the original was built with.
func headerEqual(a, b Header) bool {
	if da, ok := a.(DateHeader); ok {
		db, ok := b.(DateHeader)
		if !ok {
			return false
		}
		_, oa := da.When.Zone()
		_, ob := db.When.Zone()
		return da.When.Equal(db.When) && oa == ob
	}
	return reflect.DeepEqual(a, b)
}

func TestMessageAccessors(t *testing.T) {
	from := mustAddr(t, "", "a", "b")
	to := []Address{mustAddr(t, "", "c", "d")}
	msg, err := NewSinglepartText(from, to, "hi", testDate(), "hello")
	if err != nil {
		t.Fatalf("NewSinglepartText: %v", err)
	}
	if s, err := msg.Sender(); err != nil || s != from {
		t.Errorf("Sender()=%v,%v, want %v,nil", s, err, from)
	}
	if subj, err := msg.Subject(); err != nil || subj != "hi" {
		t.Errorf("Subject()=%q,%v, want %q,nil", subj, err, "hi")
	}
	if d, err := msg.Date(); err != nil || !d.Equal(testDate()) {
		t.Errorf("Date()=%v,%v, want %v,nil", d, err, testDate())
	}
}

func TestEmptyBodyRejected(t *testing.T) {
	from := mustAddr(t, "", "a", "b")
	to := []Address{mustAddr(t, "", "c", "d")}
	if _, err := NewSinglepartText(from, to, "hi", testDate(), ""); err == nil {
		t.Errorf("expected error for empty body")
	}
}
