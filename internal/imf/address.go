// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package imf holds the low-level RFC 5322 primitives the email
// package builds its typed headers on: address-list tokenizing, the
// =?utf-8?B?...?= encoded-word form, RFC 5322 date formatting, and the
// header-line folding reader used to split a stored entry into
// fragments.
//
// Originally derived from go/src/net/mail/message.go; adapted to
// return raw (display_name, local, domain) tuples instead of a typed
// Address, since the grammar check has to happen before the caller's
// Address constructor runs.
package imf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// AddrTuple is the raw decode of one RFC 5322 mailbox: a display name
// (possibly empty) plus the local-part and domain split on '@'.
type AddrTuple struct {
	DisplayName string
	Local       string
	Domain      string
}

// DecodeAddressList parses a comma-separated RFC 5322 address list,
// the raw value of a To/From header.
func DecodeAddressList(list string) ([]AddrTuple, error) {
	return (&addrParser{s: list}).parseAddressList()
}

// DecodeAddress parses a single RFC 5322 address.
func DecodeAddress(address string) (AddrTuple, error) {
	return (&addrParser{s: address}).parseSingleAddress()
}

// IsValidAddressPart reports whether s is a legal RFC 5322 dot-atom,
// the grammar local-part and domain must each satisfy.
func IsValidAddressPart(s string) bool {
	if s == "" {
		return false
	}
	p := &addrParser{s: s}
	atom, err := p.consumeAtom(true, false)
	return err == nil && atom == s
}

type addrParser struct {
	s string
}

func (p *addrParser) parseAddressList() ([]AddrTuple, error) {
	var list []AddrTuple
	for {
		p.skipSpace()
		addrs, err := p.parseAddress(true)
		if err != nil {
			return nil, err
		}
		list = append(list, addrs...)

		if !p.skipCFWS() {
			return nil, errors.New("imf: misformatted parenthetical comment")
		}
		if p.empty() {
			break
		}
		if !p.consume(',') {
			return nil, errors.New("imf: expected comma")
		}
	}
	return list, nil
}

func (p *addrParser) parseSingleAddress() (AddrTuple, error) {
	addrs, err := p.parseAddress(true)
	if err != nil {
		return AddrTuple{}, err
	}
	if !p.skipCFWS() {
		return AddrTuple{}, errors.New("imf: misformatted parenthetical comment")
	}
	if !p.empty() {
		return AddrTuple{}, fmt.Errorf("imf: expected single address, got %q", p.s)
	}
	if len(addrs) == 0 {
		return AddrTuple{}, errors.New("imf: empty group")
	}
	if len(addrs) > 1 {
		return AddrTuple{}, errors.New("imf: group with multiple addresses")
	}
	return addrs[0], nil
}

// parseAddress parses a single RFC 5322 address at the start of p.
func (p *addrParser) parseAddress(handleGroup bool) ([]AddrTuple, error) {
	p.skipSpace()
	if p.empty() {
		return nil, errors.New("imf: no address")
	}

	// address = mailbox / group
	// mailbox = name-addr / addr-spec
	// group = display-name ":" [group-list] ";" [CFWS]

	local, domain, err := p.consumeAddrSpec()
	if err == nil {
		var displayName string
		p.skipSpace()
		if !p.empty() && p.peek() == '(' {
			displayName, err = p.consumeDisplayNameComment()
			if err != nil {
				return nil, err
			}
		}
		return []AddrTuple{{DisplayName: displayName, Local: local, Domain: domain}}, err
	}

	// display-name
	var displayName string
	if p.peek() != '<' {
		displayName, err = p.consumePhrase()
		if err != nil {
			return nil, err
		}
	}

	p.skipSpace()
	if handleGroup {
		if p.consume(':') {
			return p.consumeGroupList()
		}
	}
	// angle-addr = "<" addr-spec ">"
	if !p.consume('<') {
		return nil, errors.New("imf: no angle-addr")
	}
	local, domain, err = p.consumeAddrSpec()
	if err != nil {
		return nil, err
	}
	if !p.consume('>') {
		return nil, errors.New("imf: unclosed angle-addr")
	}

	return []AddrTuple{{DisplayName: displayName, Local: local, Domain: domain}}, nil
}

func (p *addrParser) consumeGroupList() ([]AddrTuple, error) {
	var group []AddrTuple
	p.skipSpace()
	if p.consume(';') {
		p.skipCFWS()
		return group, nil
	}

	for {
		p.skipSpace()
		// embedded groups not allowed.
		addrs, err := p.parseAddress(false)
		if err != nil {
			return nil, err
		}
		group = append(group, addrs...)

		if !p.skipCFWS() {
			return nil, errors.New("imf: misformatted parenthetical comment")
		}
		if p.consume(';') {
			p.skipCFWS()
			break
		}
		if !p.consume(',') {
			return nil, errors.New("imf: expected comma")
		}
	}
	return group, nil
}

// consumeAddrSpec parses a single RFC 5322 addr-spec at the start of p,
// returning the local-part and domain separately (spec.md's Address
// keeps them apart rather than as one "local@domain" string).
func (p *addrParser) consumeAddrSpec() (local, domain string, err error) {
	orig := *p
	defer func() {
		if err != nil {
			*p = orig
		}
	}()

	p.skipSpace()
	if p.empty() {
		return "", "", errors.New("imf: no addr-spec")
	}
	if p.peek() == '"' {
		local, err = p.consumeQuotedString()
		if local == "" {
			err = errors.New("imf: empty quoted string in addr-spec")
		}
	} else {
		local, err = p.consumeAtom(true, false)
	}
	if err != nil {
		return "", "", err
	}

	if !p.consume('@') {
		return "", "", errors.New("imf: missing @ in addr-spec")
	}

	p.skipSpace()
	if p.empty() {
		return "", "", errors.New("imf: no domain in addr-spec")
	}
	domain, err = p.consumeAtom(true, false)
	if err != nil {
		return "", "", err
	}

	return local, domain, nil
}

// consumePhrase parses the RFC 5322 phrase at the start of p.
func (p *addrParser) consumePhrase() (phrase string, err error) {
	var words []string
	var isPrevEncoded bool
	for {
		var word string
		p.skipSpace()
		if p.empty() {
			break
		}
		isEncoded := false
		if p.peek() == '"' {
			word, err = p.consumeQuotedString()
		} else {
			word, err = p.consumeAtom(true, true)
			if err == nil {
				word, isEncoded, err = p.decodeRFC2047Word(word)
			}
		}

		if err != nil {
			break
		}
		if isPrevEncoded && isEncoded {
			words[len(words)-1] += word
		} else {
			words = append(words, word)
		}
		isPrevEncoded = isEncoded
	}
	if err != nil && len(words) == 0 {
		return "", fmt.Errorf("imf: missing word in phrase: %v", err)
	}
	phrase = strings.Join(words, " ")
	return phrase, nil
}

func (p *addrParser) consumeQuotedString() (qs string, err error) {
	i := 1
	qsb := make([]rune, 0, 10)
	escaped := false

Loop:
	for {
		r, size := utf8.DecodeRuneInString(p.s[i:])

		switch {
		case size == 0:
			return "", errors.New("imf: unclosed quoted-string")
		case size == 1 && r == utf8.RuneError:
			return "", fmt.Errorf("imf: invalid utf-8 in quoted-string: %q", p.s)
		case escaped:
			if !isVchar(r) && !isWSP(r) {
				return "", fmt.Errorf("imf: bad character in quoted-string: %q", r)
			}
			qsb = append(qsb, r)
			escaped = false
		case isQtext(r) || isWSP(r):
			qsb = append(qsb, r)
		case r == '"':
			break Loop
		case r == '\\':
			escaped = true
		default:
			return "", fmt.Errorf("imf: bad character in quoted-string: %q", r)
		}

		i += size
	}
	p.s = p.s[i+1:]
	return string(qsb), nil
}

func (p *addrParser) consumeAtom(dot bool, permissive bool) (atom string, err error) {
	i := 0

Loop:
	for {
		r, size := utf8.DecodeRuneInString(p.s[i:])
		switch {
		case size == 1 && r == utf8.RuneError:
			return "", fmt.Errorf("imf: invalid utf-8 in address: %q", p.s)
		case size == 0 || !isAtext(r, dot, permissive):
			break Loop
		default:
			i += size
		}
	}

	if i == 0 {
		return "", errors.New("imf: invalid string")
	}
	atom, p.s = p.s[:i], p.s[i:]
	if !permissive {
		if strings.HasPrefix(atom, ".") {
			return "", errors.New("imf: leading dot in atom")
		}
		if strings.Contains(atom, "..") {
			return "", errors.New("imf: double dot in atom")
		}
		if strings.HasSuffix(atom, ".") {
			return "", errors.New("imf: trailing dot in atom")
		}
	}
	return atom, nil
}

func (p *addrParser) consumeDisplayNameComment() (string, error) {
	if !p.consume('(') {
		return "", errors.New("imf: comment does not start with (")
	}
	comment, ok := p.consumeComment()
	if !ok {
		return "", errors.New("imf: misformatted parenthetical comment")
	}

	words := strings.FieldsFunc(comment, func(r rune) bool { return r == ' ' || r == '\t' })
	for idx, word := range words {
		decoded, isEncoded, err := p.decodeRFC2047Word(word)
		if err != nil {
			return "", err
		}
		if isEncoded {
			words[idx] = decoded
		}
	}

	return strings.Join(words, " "), nil
}

func (p *addrParser) consume(c byte) bool {
	if p.empty() || p.peek() != c {
		return false
	}
	p.s = p.s[1:]
	return true
}

func (p *addrParser) skipSpace() {
	p.s = strings.TrimLeft(p.s, " \t")
}

func (p *addrParser) peek() byte {
	return p.s[0]
}

func (p *addrParser) empty() bool {
	return p.len() == 0
}

func (p *addrParser) len() int {
	return len(p.s)
}

func (p *addrParser) skipCFWS() bool {
	p.skipSpace()

	for {
		if !p.consume('(') {
			break
		}
		if _, ok := p.consumeComment(); !ok {
			return false
		}
		p.skipSpace()
	}

	return true
}

func (p *addrParser) consumeComment() (string, bool) {
	depth := 1

	var comment string
	for {
		if p.empty() || depth == 0 {
			break
		}

		if p.peek() == '\\' && p.len() > 1 {
			p.s = p.s[1:]
		} else if p.peek() == '(' {
			depth++
		} else if p.peek() == ')' {
			depth--
		}
		if depth > 0 {
			comment += p.s[:1]
		}
		p.s = p.s[1:]
	}

	return comment, depth == 0
}

func (p *addrParser) decodeRFC2047Word(s string) (word string, isEncoded bool, err error) {
	word, err = mimeDecoder.Decode(s)
	if err == nil {
		return word, true, nil
	}
	if _, ok := err.(charsetError); ok {
		return s, true, err
	}
	return s, false, nil
}

type charsetError string

func (e charsetError) Error() string {
	return fmt.Sprintf("charset not supported: %q", string(e))
}

func isAtext(r rune, dot, permissive bool) bool {
	switch r {
	case '.':
		return dot
	case '(', ')', '[', ']', ';', '@', '\\', ',':
		return permissive
	case '<', '>', '"', ':':
		return false
	}
	return isVchar(r)
}

func isQtext(r rune) bool {
	if r == '\\' || r == '"' {
		return false
	}
	return isVchar(r)
}

// QuoteString renders s as an RFC 5322 quoted-string, escaping
// quotes and backslashes and dropping characters that cannot appear
// in one.
func QuoteString(s string) string {
	var buf bytes.Buffer
	buf.WriteByte('"')
	for _, r := range s {
		if isQtext(r) || isWSP(r) {
			buf.WriteRune(r)
		} else if isVchar(r) {
			buf.WriteByte('\\')
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
	return buf.String()
}

func isVchar(r rune) bool {
	return '!' <= r && r <= '~' || isMultibyte(r)
}

func isMultibyte(r rune) bool {
	return r >= utf8.RuneSelf
}

func isWSP(r rune) bool {
	return r == ' ' || r == '\t'
}

var mimeDecoder = &mime.WordDecoder{
	CharsetReader: func(charset string, input io.Reader) (io.Reader, error) {
		encoding, err := ianaindex.MIME.Encoding(charset)
		if err != nil {
			return nil, err
		}
		if encoding == nil {
			if charset == "gb2312" {
				encoding = simplifiedchinese.HZGB2312
			} else {
				log.Printf("imf: no encoding for charset: %q", charset)
				return input, nil
			}
		}
		return encoding.NewDecoder().Reader(input), nil
	},
}
