package imf

import (
	"bufio"
	"strings"
)

// HeaderPair is one raw, unparsed header line: the lowercased type
// tag and its value exactly as it appeared after "Tag: ".
type HeaderPair struct {
	Type  string
	Value string
}

// Fragment is the raw parsed view of one MIME part produced by
// splitting a stored entry on its "frontier" boundary (or, for a
// singlepart entry, the entry as a whole).
type Fragment struct {
	Headers []HeaderPair
	Body    string
}

const boundaryMarker = "--frontier"

// DecodeFragments splits a raw stored entry into its MIME parts. A
// singlepart entry (no boundary lines) decodes to exactly one
// fragment spanning the whole text.
func DecodeFragments(raw string) ([]Fragment, error) {
	if !strings.Contains(raw, boundaryMarker) {
		f, err := decodeFragment(raw)
		if err != nil {
			return nil, err
		}
		return []Fragment{f}, nil
	}

	var chunks []string
	var cur strings.Builder
	sc := bufio.NewScanner(strings.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimRight(line, "\r")
		if trimmed == boundaryMarker || trimmed == boundaryMarker+"--" {
			chunks = append(chunks, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteString(line)
		cur.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	var fragments []Fragment
	for _, chunk := range chunks {
		chunk = strings.TrimPrefix(chunk, "\n")
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		// The line ending before the boundary line belongs to the
		// separator, not to the part's body.
		chunk = strings.TrimSuffix(chunk, "\n")
		f, err := decodeFragment(chunk)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, f)
	}
	return fragments, nil
}

// decodeFragment parses one "headers blank-line body" block.
func decodeFragment(text string) (Fragment, error) {
	text = strings.TrimPrefix(text, "\n")
	idx := strings.Index(text, "\n\n")
	var headerBlock, body string
	if idx < 0 {
		headerBlock = text
		body = ""
	} else {
		headerBlock = text[:idx]
		body = text[idx+2:]
	}

	var pairs []HeaderPair
	lines := strings.Split(headerBlock, "\n")
	for i := 0; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], "\r")
		if line == "" {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			// continuation of the previous header, folded with a
			// single space per RFC 5322 unfolding.
			if len(pairs) > 0 {
				pairs[len(pairs)-1].Value += " " + strings.TrimSpace(line)
			}
			continue
		}
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			continue
		}
		typ := strings.ToLower(strings.TrimSpace(line[:colon]))
		val := strings.TrimSpace(line[colon+1:])
		pairs = append(pairs, HeaderPair{Type: typ, Value: val})
	}

	return Fragment{Headers: pairs, Body: body}, nil
}
