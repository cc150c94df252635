// Package lineset implements line normalization, the reference-set
// difference engine, and self-deduplication of line-based text.
package lineset

import (
	"strings"

	"line-sieve/internal/domain"
)

// IsSpace reports whether r is stripped by Trim: ASCII tab, line feed,
// vertical tab, form feed, carriage return and space, plus U+00A0, U+1680,
// U+2000..U+200A, U+2028, U+2029, U+202F, U+205F, U+3000 and the byte order
// mark U+FEFF. U+0085 is not whitespace here.
func IsSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ',
		'\u00a0', '\u1680', '\u2028', '\u2029', '\u202f', '\u205f', '\u3000', '\ufeff':
		return true
	}
	return r >= '\u2000' && r <= '\u200a'
}

// Trim removes leading and trailing IsSpace runes.
func Trim(s string) string {
	return strings.TrimFunc(s, IsSpace)
}

// Key maps a raw line to the string used for membership tests.
// Only trimming and lowercasing apply; inner whitespace and punctuation are kept.
func Key(line string, opts domain.ProcessingOptions) string {
	key := line
	if opts.TrimWhitespace {
		key = Trim(key)
	}
	if !opts.CaseSensitive {
		key = strings.ToLower(key)
	}
	return key
}

// Display returns the form of a line that is shown in results.
func Display(line string, opts domain.ProcessingOptions) string {
	if opts.TrimWhitespace {
		return Trim(line)
	}
	return line
}

// SplitLines splits text on "\n" and drops blank lines when requested.
// Carriage returns are left in place so that CRLF input round-trips when
// trimming is off.
func SplitLines(text string, ignoreEmpty bool) []string {
	raw := strings.Split(text, "\n")
	if !ignoreEmpty {
		return raw
	}

	out := make([]string, 0, len(raw))
	for _, line := range raw {
		if Trim(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// CountLines counts non-blank lines, matching the per-field counter in the UI.
func CountLines(text string) int {
	return len(SplitLines(text, true))
}
