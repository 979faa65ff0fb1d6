package util

import "unicode/utf8"

// TruncateRunes cuts s to at most n runes without splitting a multi-byte
// character.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
