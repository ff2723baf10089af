package email

import (
	"fmt"
	"strings"

	"github.com/spilled-ink/mailterm/internal/imf"
	"github.com/spilled-ink/mailterm/internal/merr"
)

// Part is headers + body unit within a Message. Headers order is
// significant and preserved as inserted at construction. There is no
// real need for the enclosing-instance coupling the original source
// modeled Part with; it is a plain value type alongside Message.
type Part struct {
	Headers []Header
	Body    string
}

// NewPart validates the invariants spec.md §3 states for a Part: a
// non-empty header list and a non-empty body.
func NewPart(headers []Header, body string) (Part, error) {
	if len(headers) == 0 {
		return Part{}, fmt.Errorf("email: part headers: %w", merr.ErrEmptyInput)
	}
	if body == "" {
		return Part{}, fmt.Errorf("email: part body: %w", merr.ErrEmptyInput)
	}
	return Part{Headers: headers, Body: body}, nil
}

// header scans the part's headers for the matching tag. Correct
// because header lists are bounded and small (design note, §9:
// "Polymorphic collections of headers").
func (p Part) header(tag string) (Header, bool) {
	for _, h := range p.Headers {
		if h.Tag() == tag {
			return h, true
		}
	}
	return nil, false
}

// contentType returns the part's Content-Type header, or the implied
// text/plain; us-ascii default when absent.
func (p Part) contentType() ContentType {
	if h, ok := p.header("Content-Type"); ok {
		return h.(ContentType)
	}
	return ContentType{MediaType: "text/plain", Charset: "us-ascii"}
}

// EncodeHeaders renders each header's encoded form, one per line, in
// stored order.
func EncodeHeaders(p Part) string {
	var b strings.Builder
	for _, h := range p.Headers {
		b.WriteString(EncodeHeader(h))
		b.WriteByte('\n')
	}
	return b.String()
}

// EncodeBody applies the body-encoding policy: Base64 when the part's
// content-type is text/html, or when the body is non-ASCII;
// otherwise emitted verbatim.
func EncodeBody(p Part) string {
	ct := p.contentType()
	if ct.MediaType == "text/html" {
		return imf.EncodeBody(p.Body)
	}
	if !imf.IsASCII(p.Body) {
		return imf.EncodeBody(p.Body)
	}
	return p.Body
}

// EncodePart renders a part as "headers blank-line body".
func EncodePart(p Part) string {
	return EncodeHeaders(p) + "\n" + EncodeBody(p)
}

// htmlBodyMarker is the Base64 prefix of "<html>". decodeBody uses it
// as a heuristic to detect a Base64-encoded body, preserved as-is
// from the source behaviour despite misclassifying any non-HTML body
// that happens to start with the same bytes (spec.md §9).
const htmlBodyMarker = "PGh0bWw+"

func decodeBody(raw string) (string, error) {
	if strings.HasPrefix(raw, htmlBodyMarker) {
		body, err := imf.DecodeBody(raw)
		if err != nil {
			return "", fmt.Errorf("email: decode body: %v: %w", err, merr.ErrMalformedHeader)
		}
		return body, nil
	}
	return raw, nil
}
