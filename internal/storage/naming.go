package storage

import (
	"fmt"
	"strings"
	"unicode"
)

// maxStemLen caps the prompt-derived part of a file name, in runes.
const maxStemLen = 50

// FileName derives the output file name for a render. Letters, digits,
// underscore and hyphen are kept; every other character becomes an
// underscore.
func FileName(prompt string, duration, influence float64, format string) string {
	var b strings.Builder
	n := 0
	for _, r := range prompt {
		if n == maxStemLen {
			break
		}
		if isSafe(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
		n++
	}
	return fmt.Sprintf("%s_%.2f_%.2f.%s", b.String(), duration, influence, format)
}

func isSafe(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-'
}
