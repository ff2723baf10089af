package imf

import (
	"encoding/base64"
	"strings"
)

// EncodeBody base64-encodes a message or part body.
func EncodeBody(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// DecodeBody reverses EncodeBody.
func DecodeBody(s string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

const wordPrefix = "=?utf-8?B?"
const wordSuffix = "?="

// EncodeWord renders s as the RFC 2047 "encoded-word" form the
// Subject header uses for non-ASCII text.
func EncodeWord(s string) string {
	return wordPrefix + base64.StdEncoding.EncodeToString([]byte(s)) + wordSuffix
}

// DecodeWord reverses EncodeWord. ok is false if raw is not an
// encoded-word in the utf-8/B form this codec emits.
func DecodeWord(raw string) (s string, ok bool, err error) {
	if !strings.HasPrefix(raw, wordPrefix) || !strings.HasSuffix(raw, wordSuffix) {
		return "", false, nil
	}
	enc := raw[len(wordPrefix) : len(raw)-len(wordSuffix)]
	b, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return "", true, err
	}
	return string(b), true, nil
}
