package cache

import (
	"regexp"
	"strings"
)

// compileGlob turns a glob into an anchored matcher. '*' matches any run of
// characters (separators and newlines included), '?' matches exactly one and
// '\' makes the next character literal. Everything else is literal.
func compileGlob(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString(`\A(?s:`)
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; r {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		case '\\':
			if i+1 < len(runes) {
				i++
				b.WriteString(regexp.QuoteMeta(string(runes[i])))
			} else {
				b.WriteString(`\\`)
			}
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString(`)\z`)
	return regexp.MustCompile(b.String())
}

// MatchGlob reports whether key matches pattern.
func MatchGlob(pattern, key string) bool {
	return compileGlob(pattern).MatchString(key)
}

// EscapeGlob quotes every glob metacharacter in s so it only matches itself.
func EscapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
