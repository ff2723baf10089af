// Package merr holds the sentinel error values shared by the email,
// mailbox, and mua packages, so callers can use errors.Is instead of
// string matching across package boundaries.
package merr

import "errors"

var (
	ErrEmptyInput       = errors.New("empty input")
	ErrMalformedAddress = errors.New("malformed address")
	ErrMalformedDate    = errors.New("malformed date")
	ErrMalformedHeader  = errors.New("malformed header")
	ErrMissingHeader    = errors.New("missing header")
	ErrNoSelection      = errors.New("no selection")
	ErrNoSuchMailbox    = errors.New("no such mailbox")
	ErrOutOfRange       = errors.New("out of range")
	ErrIO               = errors.New("io")
)
