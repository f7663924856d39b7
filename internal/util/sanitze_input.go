package util

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SanitizeInput trims and escapes text that ends up in an HTML-formatted message
func SanitizeInput(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}

// StripPhoneFormatting removes whitespace, hyphens and parentheses users type into phone fields
func StripPhoneFormatting(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' || r == '(' || r == ')' {
			return -1
		}
		return r
	}, s)
}

// CharLen counts characters, not bytes
func CharLen(s string) int {
	return utf8.RuneCountInString(s)
}

// MaskPhone keeps the prefix and the last two digits for log lines
func MaskPhone(phone string) string {
	n := len(phone)
	if n <= 6 {
		return strings.Repeat("*", n)
	}
	return phone[:4] + strings.Repeat("*", n-6) + phone[n-2:]
}
