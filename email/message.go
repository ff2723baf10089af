// Package email is the message model and MIME codec a mail user agent
// builds its mailbox/message organisation on: typed headers, a
// closed header algebra, single-part and multipart bodies, and a
// bit-exact encode/decode between that model and the on-disk textual
// form.
package email

import (
	"fmt"
	"time"

	"github.com/spilled-ink/mailterm/internal/imf"
	"github.com/spilled-ink/mailterm/internal/merr"
)

// envelopeBody is the fixed body of a multipart message's first
// (envelope) part.
const envelopeBody = "This is a message with multiple parts in MIME format."

const boundarySeparator = "\n--frontier\n"
const boundaryTerminator = "\n--frontier--\n"

// Message is an email: an ordered, non-empty sequence of Parts. A
// singlepart message has one part carrying the four mandatory
// headers; a multipart message (always multipart/alternative) has
// exactly three: envelope, text, html.
type Message struct {
	Parts []Part
}

func (m *Message) firstPart() Part {
	return m.Parts[0]
}

// Sender returns the first part's From header.
func (m *Message) Sender() (Address, error) {
	h, ok := m.firstPart().header("From")
	if !ok {
		return Address{}, fmt.Errorf("email: message has no From header: %w", merr.ErrMissingHeader)
	}
	return h.(Sender).Address, nil
}

// Recipients returns the first part's To header.
func (m *Message) Recipients() ([]Address, error) {
	h, ok := m.firstPart().header("To")
	if !ok {
		return nil, fmt.Errorf("email: message has no To header: %w", merr.ErrMissingHeader)
	}
	return h.(Recipients).Addresses, nil
}

// Subject returns the first part's Subject header.
func (m *Message) Subject() (string, error) {
	h, ok := m.firstPart().header("Subject")
	if !ok {
		return "", fmt.Errorf("email: message has no Subject header: %w", merr.ErrMissingHeader)
	}
	return h.(Subject).Text, nil
}

// Date returns the first part's Date header.
func (m *Message) Date() (time.Time, error) {
	h, ok := m.firstPart().header("Date")
	if !ok {
		return time.Time{}, fmt.Errorf("email: message has no Date header: %w", merr.ErrMissingHeader)
	}
	return h.(DateHeader).When, nil
}

// IsMultipart reports whether m has the three-part multipart/alternative shape.
func (m *Message) IsMultipart() bool {
	return len(m.Parts) > 1
}

// NewSinglepartText builds a singlepart text/plain message.
func NewSinglepartText(sender Address, recipients []Address, subject string, date time.Time, body string) (*Message, error) {
	return newSinglepart(sender, recipients, subject, date, body, false)
}

// NewSinglepartHTML builds a singlepart text/html message.
func NewSinglepartHTML(sender Address, recipients []Address, subject string, date time.Time, body string) (*Message, error) {
	return newSinglepart(sender, recipients, subject, date, body, true)
}

func newSinglepart(sender Address, recipients []Address, subject string, date time.Time, body string, isHTML bool) (*Message, error) {
	if len(recipients) == 0 {
		return nil, fmt.Errorf("email: message recipients: %w", merr.ErrEmptyInput)
	}
	if body == "" {
		return nil, fmt.Errorf("email: message body: %w", merr.ErrEmptyInput)
	}

	headers := []Header{
		Sender{Address: sender},
		Recipients{Addresses: recipients},
		Subject{Text: subject},
		DateHeader{When: date},
	}

	var ct ContentType
	switch {
	case isHTML:
		ct = ContentType{MediaType: "text/html", Charset: "utf-8"}
	case imf.IsASCII(body):
		ct = ContentType{MediaType: "text/plain", Charset: "us-ascii"}
	default:
		ct = ContentType{MediaType: "text/plain", Charset: "utf-8"}
	}
	headers = append(headers, ct)
	if isHTML || !imf.IsASCII(body) {
		headers = append(headers, ContentTransferEncoding{Encoding: "base64"})
	}

	part, err := NewPart(headers, body)
	if err != nil {
		return nil, err
	}
	return &Message{Parts: []Part{part}}, nil
}

// NewMultipart builds a three-part multipart/alternative message: an
// envelope part carrying the mandatory headers, a text/plain part,
// and a text/html part.
func NewMultipart(sender Address, recipients []Address, subject string, date time.Time, textBody, htmlBody string) (*Message, error) {
	if len(recipients) == 0 {
		return nil, fmt.Errorf("email: message recipients: %w", merr.ErrEmptyInput)
	}
	if textBody == "" || htmlBody == "" {
		return nil, fmt.Errorf("email: message body: %w", merr.ErrEmptyInput)
	}

	envelopeHeaders := []Header{
		Sender{Address: sender},
		Recipients{Addresses: recipients},
		Subject{Text: subject},
		DateHeader{When: date},
		MimeVersion{Version: "1.0"},
		ContentType{MediaType: "multipart/alternative", Charset: ""},
	}
	envelope, err := NewPart(envelopeHeaders, envelopeBody)
	if err != nil {
		return nil, err
	}

	textHeaders := []Header{}
	if imf.IsASCII(textBody) {
		textHeaders = append(textHeaders, ContentType{MediaType: "text/plain", Charset: "us-ascii"})
	} else {
		textHeaders = append(textHeaders,
			ContentType{MediaType: "text/plain", Charset: "utf-8"},
			ContentTransferEncoding{Encoding: "base64"})
	}
	textPart, err := NewPart(textHeaders, textBody)
	if err != nil {
		return nil, err
	}

	htmlHeaders := []Header{
		ContentType{MediaType: "text/html", Charset: "utf-8"},
		ContentTransferEncoding{Encoding: "base64"},
	}
	htmlPart, err := NewPart(htmlHeaders, htmlBody)
	if err != nil {
		return nil, err
	}

	return &Message{Parts: []Part{envelope, textPart, htmlPart}}, nil
}

// EncodeMessage renders m as its on-disk textual form.
func EncodeMessage(m *Message) string {
	if !m.IsMultipart() {
		return EncodePart(m.Parts[0])
	}
	return EncodePart(m.Parts[0]) + boundarySeparator +
		EncodePart(m.Parts[1]) + boundarySeparator +
		EncodePart(m.Parts[2]) + boundaryTerminator
}

// FromFragments reconstructs a Message from the fragment list the
// entry codec produces. Per spec.md §9, this assumes fragments
// 0/1/2 correspond to envelope/text/html in a multipart message and
// does not validate counts beyond "== 1 vs != 1"; invalid inputs
// yield undefined content, matching the source's preserved behaviour.
func FromFragments(fragments []imf.Fragment) (*Message, error) {
	if len(fragments) == 0 {
		return nil, fmt.Errorf("email: from fragments: %w", merr.ErrEmptyInput)
	}

	parts := make([]Part, len(fragments))
	for i, f := range fragments {
		headers := make([]Header, 0, len(f.Headers))
		for _, hp := range f.Headers {
			h, ok, err := decodeHeader(hp.Type, hp.Value)
			if err != nil {
				return nil, err
			}
			if ok {
				headers = append(headers, h)
			}
		}
		body, err := decodeBody(f.Body)
		if err != nil {
			return nil, err
		}
		p, err := NewPart(headers, body)
		if err != nil {
			return nil, err
		}
		parts[i] = p
	}

	if len(parts) == 1 {
		return &Message{Parts: parts}, nil
	}

	envelope := parts[0]
	envelope.Body = envelopeBody
	msgParts := []Part{envelope}
	if len(parts) > 1 {
		msgParts = append(msgParts, parts[1])
	}
	if len(parts) > 2 {
		msgParts = append(msgParts, parts[2])
	}
	return &Message{Parts: msgParts}, nil
}

// DecodeEntry is the entry codec: it splits raw stored text into
// fragments and reconstructs the Message they represent.
func DecodeEntry(raw string) (*Message, error) {
	fragments, err := imf.DecodeFragments(raw)
	if err != nil {
		return nil, fmt.Errorf("email: decode entry: %v: %w", err, merr.ErrMalformedHeader)
	}
	return FromFragments(fragments)
}
