// Package domains partitions domain-name lists by their last label.
package domains

import (
	"regexp"
	"slices"
	"strings"

	"github.com/samber/lo"

	"line-sieve/internal/lineset"
)

var validDomain = regexp.MustCompile(`^[a-z0-9.-]+$`)

// Result is the grouped output of one separation pass.
type Result struct {
	Extensions []string            `json:"extensions"`
	Groups     map[string][]string `json:"groups"`
	Invalid    []string            `json:"invalid"`
	Stats      Stats               `json:"stats"`
}

// Stats summarizes a separation pass for display.
type Stats struct {
	Total      int `json:"total"`
	Valid      int `json:"valid"`
	Invalid    int `json:"invalid"`
	Extensions int `json:"extensions"`
}

// Separate cleans each line and groups valid domains by extension.
// Extensions keep first-seen order; each group is sorted.
// Lines without a dot are neither grouped nor reported invalid.
func Separate(text string) Result {
	groups := make(map[string][]string)
	var extensions []string
	invalid := []string{}

	lines := cleanLines(text)
	for _, domain := range lines {
		if !validDomain.MatchString(domain) {
			invalid = append(invalid, domain)
			continue
		}

		idx := strings.LastIndex(domain, ".")
		if idx < 0 {
			continue
		}
		ext := domain[idx+1:]
		if _, ok := groups[ext]; !ok {
			extensions = append(extensions, ext)
		}
		groups[ext] = append(groups[ext], domain)
	}

	for _, ext := range extensions {
		slices.Sort(groups[ext])
	}

	return Result{
		Extensions: lo.Ternary(extensions == nil, []string{}, extensions),
		Groups:     groups,
		Invalid:    invalid,
		Stats: Stats{
			Total:      len(lines),
			Valid:      lo.SumBy(lo.Values(groups), func(g []string) int { return len(g) }),
			Invalid:    len(invalid),
			Extensions: len(extensions),
		},
	}
}

// Columns returns the groups in extension order, ready for column export.
func (r Result) Columns() [][]string {
	return lo.Map(r.Extensions, func(ext string, _ int) []string {
		return r.Groups[ext]
	})
}

// cleanLines trims, lowercases, strips '/' and '#', and drops blanks.
func cleanLines(text string) []string {
	strip := strings.NewReplacer("/", "", "#", "")
	return lo.FilterMap(strings.Split(text, "\n"), func(line string, _ int) (string, bool) {
		cleaned := strip.Replace(strings.ToLower(lineset.Trim(line)))
		return cleaned, cleaned != ""
	})
}
