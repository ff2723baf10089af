package email

import (
	"fmt"
	"strings"

	"github.com/spilled-ink/mailterm/internal/imf"
	"github.com/spilled-ink/mailterm/internal/merr"
)

// Address is an email address: a possibly-empty display name plus a
// non-empty local-part and domain. Equality is structural.
type Address struct {
	DisplayName string
	Local       string
	Domain      string
}

// NewAddress builds an Address, validating the local-part and domain
// against the address-part grammar the tokenizer enforces.
func NewAddress(displayName, local, domain string) (Address, error) {
	if local == "" || domain == "" {
		return Address{}, fmt.Errorf("email: address: %w", merr.ErrEmptyInput)
	}
	if !imf.IsValidAddressPart(local) || !imf.IsValidAddressPart(domain) {
		return Address{}, fmt.Errorf("email: address %q@%q: %w", local, domain, merr.ErrMalformedAddress)
	}
	return Address{DisplayName: displayName, Local: local, Domain: domain}, nil
}

// String renders the address in its canonical text form:
//
//	empty display name    -> local@domain
//	1-2 word display name -> display_name <local@domain>
//	else                  -> "display_name" <local@domain>
func (a Address) String() string {
	spec := a.Local + "@" + a.Domain
	if a.DisplayName == "" {
		return spec
	}
	if len(strings.Fields(a.DisplayName)) <= 2 {
		return a.DisplayName + " <" + spec + ">"
	}
	return `"` + a.DisplayName + `" <` + spec + ">"
}

// ParseAddress parses a single RFC 5322 address (e.g. "Name <l@d>" or
// "l@d"), for callers outside the package building addresses from
// free-form text (cmd/mailterm's COMPOSE prompt).
func ParseAddress(raw string) (Address, error) {
	return decodeAddress(raw)
}

// ParseAddressList parses a comma-separated list of RFC 5322
// addresses.
func ParseAddressList(raw string) ([]Address, error) {
	return decodeAddressList(raw)
}

func decodeAddress(raw string) (Address, error) {
	tup, err := imf.DecodeAddress(raw)
	if err != nil {
		return Address{}, fmt.Errorf("email: decode From: %v: %w", err, merr.ErrMalformedAddress)
	}
	return NewAddress(tup.DisplayName, tup.Local, tup.Domain)
}

func decodeAddressList(raw string) ([]Address, error) {
	tups, err := imf.DecodeAddressList(raw)
	if err != nil {
		return nil, fmt.Errorf("email: decode To: %v: %w", err, merr.ErrMalformedAddress)
	}
	if len(tups) == 0 {
		return nil, fmt.Errorf("email: decode To: empty list: %w", merr.ErrMalformedAddress)
	}
	addrs := make([]Address, len(tups))
	for i, t := range tups {
		a, err := NewAddress(t.DisplayName, t.Local, t.Domain)
		if err != nil {
			return nil, err
		}
		addrs[i] = a
	}
	return addrs, nil
}
