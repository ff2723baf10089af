package email

import (
	"fmt"
	"strings"
	"time"

	"github.com/spilled-ink/mailterm/internal/imf"
	"github.com/spilled-ink/mailterm/internal/merr"
)

// Header is the closed family of typed headers a Part carries. It is
// a tagged variant (sum type): one concrete arm per entry in
// spec.md's header table, expressed as a Go interface with an
// unexported marker method so no type outside this package can add an
// arm. Readers pattern-match with a type switch or assertion rather
// than a runtime type check, per the header-algebra design note.
type Header interface {
	// Tag is the header's type-tag string, e.g. "From" or "Content-Type".
	Tag() string
	rawValue() string
}

// Sender is the From header: exactly one Address.
type Sender struct {
	Address Address
}

func (Sender) Tag() string        { return "From" }
func (s Sender) rawValue() string { return s.Address.String() }

// Recipients is the To header: a non-empty ordered list of Address.
type Recipients struct {
	Addresses []Address
}

func (Recipients) Tag() string { return "To" }
func (r Recipients) rawValue() string {
	parts := make([]string, len(r.Addresses))
	for i, a := range r.Addresses {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

// Subject is the Subject header: an arbitrary Unicode string, may be
// empty.
type Subject struct {
	Text string
}

func (Subject) Tag() string { return "Subject" }
func (s Subject) rawValue() string {
	if imf.IsASCII(s.Text) {
		return s.Text
	}
	return imf.EncodeWord(s.Text)
}

// DateHeader is the Date header: an instant with timezone.
type DateHeader struct {
	When time.Time
}

func (DateHeader) Tag() string        { return "Date" }
func (d DateHeader) rawValue() string { return imf.EncodeDate(d.When) }

// ContentType is the Content-Type header.
type ContentType struct {
	MediaType string
	Charset   string // empty for the multipart case
}

func (ContentType) Tag() string { return "Content-Type" }
func (c ContentType) rawValue() string {
	if c.Charset == "" {
		return c.MediaType + "; boundary=frontier"
	}
	return c.MediaType + `; charset="` + c.Charset + `"`
}

// ContentTransferEncoding is the Content-Transfer-Encoding header.
type ContentTransferEncoding struct {
	Encoding string // non-empty
}

func (ContentTransferEncoding) Tag() string        { return "Content-Transfer-Encoding" }
func (c ContentTransferEncoding) rawValue() string { return c.Encoding }

// MimeVersion is the MIME-Version header.
type MimeVersion struct {
	Version string // non-empty
}

func (MimeVersion) Tag() string        { return "MIME-Version" }
func (m MimeVersion) rawValue() string { return m.Version }

// EncodeHeader renders a header as its "Tag: value" text form.
func EncodeHeader(h Header) string {
	return h.Tag() + ": " + h.rawValue()
}

// decodeHeader builds a typed Header from a fragment's raw
// (type_lowercased, value) pair. ok is false for a tag this algebra
// does not know, which the core silently ignores when reparsing a
// message (spec.md §4.1, "Determinism").
func decodeHeader(tag, value string) (h Header, ok bool, err error) {
	switch tag {
	case "from":
		addr, err := decodeAddress(value)
		if err != nil {
			return nil, true, err
		}
		return Sender{Address: addr}, true, nil

	case "to":
		addrs, err := decodeAddressList(value)
		if err != nil {
			return nil, true, err
		}
		return Recipients{Addresses: addrs}, true, nil

	case "subject":
		if decoded, isWord, err := imf.DecodeWord(value); isWord {
			if err != nil {
				return nil, true, fmt.Errorf("email: decode Subject: %v: %w", err, merr.ErrMalformedHeader)
			}
			return Subject{Text: decoded}, true, nil
		}
		return Subject{Text: value}, true, nil

	case "date":
		t, err := imf.DecodeDate(value)
		if err != nil {
			return nil, true, fmt.Errorf("email: decode Date: %v: %w", err, merr.ErrMalformedDate)
		}
		return DateHeader{When: t}, true, nil

	case "content-type":
		return decodeContentType(value), true, nil

	case "content-transfer-encoding":
		if value == "" {
			return nil, true, fmt.Errorf("email: decode Content-Transfer-Encoding: %w", merr.ErrEmptyInput)
		}
		return ContentTransferEncoding{Encoding: value}, true, nil

	case "mime-version":
		if value == "" {
			return nil, true, fmt.Errorf("email: decode MIME-Version: %w", merr.ErrEmptyInput)
		}
		return MimeVersion{Version: value}, true, nil

	default:
		return nil, false, nil
	}
}

// decodeContentType implements spec.md §4.1's Content-Type decoding
// exactly, including its preserved quirk: any parameter other than
// charset is not inspected, and the header is then assumed to be
// multipart/alternative with an empty charset, discarding whatever
// media type preceded it.
func decodeContentType(value string) ContentType {
	fields := strings.Split(value, "; ")
	for _, f := range fields[1:] {
		if strings.HasPrefix(f, "charset=") {
			charset := strings.Trim(strings.TrimPrefix(f, "charset="), `"`)
			return ContentType{MediaType: fields[0], Charset: charset}
		}
	}
	return ContentType{MediaType: "multipart/alternative", Charset: ""}
}
