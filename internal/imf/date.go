package imf

import "time"

// dateLayout is RFC 5322 §3.3's date-time with an unpadded day of
// month ("Tue, 2 Jan 2024 03:04:05 +0000"). Parsing also accepts a
// two-digit day.
const dateLayout = "Mon, 2 Jan 2006 15:04:05 -0700"

// EncodeDate renders t as an RFC 5322 Date header value.
func EncodeDate(t time.Time) string {
	return t.Format(dateLayout)
}

// DecodeDate parses an RFC 5322 Date header value.
func DecodeDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}
