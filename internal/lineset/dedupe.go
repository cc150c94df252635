package lineset

import (
	"strings"

	"line-sieve/internal/domain"
)

// Dedupe keeps the first occurrence of each key among trimmed, non-blank lines.
// Lines are always trimmed here regardless of opts.TrimWhitespace; only the
// case rule is taken from opts.
func Dedupe(text string, opts domain.ProcessingOptions) []string {
	keyOpts := opts
	keyOpts.TrimWhitespace = true

	lines := SplitLines(text, true)
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := Trim(line)
		key := Key(trimmed, keyOpts)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

// DedupeText is Dedupe joined back into newline-separated text.
func DedupeText(text string, opts domain.ProcessingOptions) string {
	return strings.Join(Dedupe(text, opts), "\n")
}
