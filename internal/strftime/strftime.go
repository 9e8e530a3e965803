// Package strftime translates the small subset of strftime directives the
// text sink's --date flag supports into Go's reference-time layout string.
// No third-party strftime implementation appears anywhere in the retrieved
// pack, and the translation itself is a few dozen lines of table lookup —
// not a case for reaching past the standard library's time package.
package strftime

import (
	"strings"
	"time"
)

// Format renders t according to pattern. Each directive is rendered on its
// own; text outside directives is copied literally.
func Format(t time.Time, pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != '%' || i+1 >= len(pattern) {
			b.WriteByte(pattern[i])
			continue
		}
		directive := pattern[i : i+2]
		if layout := translate(directive); layout != directive {
			directive = t.Format(layout)
		}
		b.WriteString(directive)
		i++
	}
	return b.String()
}

func translate(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c != '%' || i+1 >= len(pattern) {
			b.WriteByte(c)
			continue
		}
		i++
		switch pattern[i] {
		case 'Y':
			b.WriteString("2006")
		case 'y':
			b.WriteString("06")
		case 'm':
			b.WriteString("01")
		case 'd':
			b.WriteString("02")
		case 'H':
			b.WriteString("15")
		case 'M':
			b.WriteString("04")
		case 'S':
			b.WriteString("05")
		case 'Z':
			b.WriteString("MST")
		case 'z':
			b.WriteString("-0700")
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte('%')
			b.WriteByte(pattern[i])
		}
	}
	return b.String()
}
