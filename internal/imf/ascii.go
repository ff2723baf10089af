package imf

// IsASCII reports whether s contains only 7-bit ASCII bytes, the test
// the header algebra and the body-encoding policy both key off.
func IsASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
