package email

import (
	"testing"
	"time"
)

func mustAddr(t *testing.T, name, local, domain string) Address {
	t.Helper()
	a, err := NewAddress(name, local, domain)
	if err != nil {
		t.Fatalf("NewAddress(%q,%q,%q): %v", name, local, domain, err)
	}
	return a
}

var addressCanonicalTests = []struct {
	name string
	addr Address
	want string
}{
	{"no display name", Address{Local: "a", Domain: "b"}, "a@b"},
	{"one word", Address{DisplayName: "Barry", Local: "bg", Domain: "example.com"}, "Barry <bg@example.com>"},
	{"two words", Address{DisplayName: "Barry Gibbs", Local: "bg", Domain: "example.com"}, "Barry Gibbs <bg@example.com>"},
	{"three words", Address{DisplayName: "Barry Alan Gibbs", Local: "bg", Domain: "example.com"}, `"Barry Alan Gibbs" <bg@example.com>`},
}

func TestAddressCanonicalForm(t *testing.T) {
	for _, test := range addressCanonicalTests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.addr.String(); got != test.want {
				t.Errorf("String()=%q, want %q", got, test.want)
			}
		})
	}
}

func TestNewAddressRejectsBadParts(t *testing.T) {
	if _, err := NewAddress("", "", "example.com"); err == nil {
		t.Errorf("expected error for empty local-part")
	}
	if _, err := NewAddress("", "a b", "example.com"); err == nil {
		t.Errorf("expected error for local-part with a space")
	}
}

var headerRoundTripTests = []struct {
	name string
	h    Header
}{
	{"subject ascii", Subject{Text: "hi"}},
	{"subject empty", Subject{Text: ""}},
	{"subject non-ascii", Subject{Text: "ciào"}},
	{"content-type charset", ContentType{MediaType: "text/plain", Charset: "us-ascii"}},
	{"content-transfer-encoding", ContentTransferEncoding{Encoding: "base64"}},
	{"mime-version", MimeVersion{Version: "1.0"}},
}

func TestHeaderRoundTrip(t *testing.T) {
	for _, test := range headerRoundTripTests {
		t.Run(test.name, func(t *testing.T) {
			raw := EncodeHeader(test.h)
			tag := test.h.Tag()
			value := raw[len(tag)+2:]
			got, ok, err := decodeHeader(tagToLower(tag), value)
			if err != nil {
				t.Fatalf("decodeHeader: %v", err)
			}
			if !ok {
				t.Fatalf("decodeHeader: unrecognised tag %q", tag)
			}
			if got != test.h {
				t.Errorf("decodeHeader(%q)=%#v, want %#v", raw, got, test.h)
			}
		})
	}
}

func tagToLower(tag string) string {
	b := []byte(tag)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c - 'A' + 'a'
		}
	}
	return string(b)
}

func TestSubjectEncodedWord(t *testing.T) {
	ascii := Subject{Text: "hi"}
	if got := EncodeHeader(ascii); got != "Subject: hi" {
		t.Errorf("ascii subject encoded as %q", got)
	}
	nonASCII := Subject{Text: "ciào"}
	want := "Subject: =?utf-8?B?Y2nDoG8=?="
	if got := EncodeHeader(nonASCII); got != want {
		t.Errorf("non-ascii subject encoded as %q, want %q", got, want)
	}
}

func TestContentTypeDecodeDiscardsNonCharsetParam(t *testing.T) {
	got := decodeContentType("multipart/alternative; boundary=frontier")
	want := ContentType{MediaType: "multipart/alternative", Charset: ""}
	if got != want {
		t.Errorf("decodeContentType=%#v, want %#v", got, want)
	}
}

func TestDateRoundTrip(t *testing.T) {
	date := time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC)
	h := DateHeader{When: date}
	raw := EncodeHeader(h)
	got, ok, err := decodeHeader("date", raw[len("Date: "):])
	if err != nil || !ok {
		t.Fatalf("decodeHeader(date): ok=%v err=%v", ok, err)
	}
	if !got.(DateHeader).When.Equal(date) {
		t.Errorf("decoded date=%v, want %v", got.(DateHeader).When, date)
	}
}
