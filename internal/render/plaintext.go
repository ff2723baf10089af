// Package render turns an HTML message body into a plain-text
// approximation suitable for printing to a terminal, so cmd/mailterm
// never dumps raw markup to the screen.
package render

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// PlainText walks src's HTML token stream and returns the text it
// finds, inserting a newline before the text that follows each div,
// p or br start tag.
func PlainText(src string) (string, error) {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(src))
	pendingNewlines := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err == io.EOF {
				return b.String(), nil
			} else {
				return b.String(), err
			}
		case html.TextToken:
			for pendingNewlines > 0 {
				b.WriteByte('\n')
				pendingNewlines--
			}
			b.Write(z.Text())
		case html.StartTagToken:
			tn, _ := z.TagName()
			switch string(tn) {
			case "div", "p", "br":
				pendingNewlines++
			}
		}
	}
}
