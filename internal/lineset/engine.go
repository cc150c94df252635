package lineset

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"line-sieve/internal/domain"
)

// DefaultChunkSize is the number of candidate lines between progress checks.
const DefaultChunkSize = 10000

// Request carries the two datasets and options for one difference run.
type Request struct {
	ReferenceText string                   `json:"referenceText"`
	CandidateText string                   `json:"candidateText"`
	Options       domain.ProcessingOptions `json:"options"`
}

// Config tunes engine behavior that is not part of the per-run options.
type Config struct {
	ChunkSize int
	Locale    string
}

// Engine computes new-minus-reference line differences.
// It holds no state between runs and is safe for concurrent use.
type Engine struct {
	chunkSize int
	tag       language.Tag
}

// NewEngine validates config and builds an engine.
func NewEngine(cfg Config) (*Engine, error) {
	chunk := cfg.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}

	locale := strings.TrimSpace(cfg.Locale)
	if locale == "" {
		locale = "en"
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse collation locale %q: %w", locale, err)
	}

	return &Engine{chunkSize: chunk, tag: tag}, nil
}

// ChunkSize reports the progress interval in candidate lines.
func (e *Engine) ChunkSize() int {
	return e.chunkSize
}

// Locale reports the collation locale used for sorting.
func (e *Engine) Locale() string {
	return e.tag.String()
}

// ReferenceSet builds the lookup set of normalized keys from reference text.
func ReferenceSet(text string, opts domain.ProcessingOptions) map[string]struct{} {
	lines := SplitLines(text, opts.IgnoreEmptyLines)
	set := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		set[Key(line, opts)] = struct{}{}
	}
	return set
}

// Difference returns candidate lines whose key is absent from the reference set.
// onProgress receives non-decreasing percentages at chunk boundaries and a
// final 100. ctx is checked at every chunk boundary.
func (e *Engine) Difference(ctx context.Context, req Request, onProgress func(percent int)) ([]string, error) {
	opts := req.Options
	reference := ReferenceSet(req.ReferenceText, opts)
	candidates := SplitLines(req.CandidateText, opts.IgnoreEmptyLines)

	out := make([]string, 0)
	total := len(candidates)
	if total == 0 {
		return out, nil
	}

	last := -1
	emit := func(processed int) {
		p := Percent(processed, total)
		if p <= last {
			return
		}
		last = p
		if onProgress != nil {
			onProgress(p)
		}
	}

	emit(0)
	for i, line := range candidates {
		if _, seen := reference[Key(line, opts)]; !seen {
			out = append(out, Display(line, opts))
		}

		processed := i + 1
		if processed%e.chunkSize == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			emit(processed)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if opts.SortResults {
		e.Sort(out)
	}
	emit(total)

	return out, nil
}

// Sort orders lines in place using locale-aware collation.
// Lines that collate equal keep their relative order.
func (e *Engine) Sort(lines []string) {
	col := collate.New(e.tag)
	sort.SliceStable(lines, func(i, j int) bool {
		return col.CompareString(lines[i], lines[j]) < 0
	})
}

// Percent rounds processed/total to a whole percentage in 0..100.
func Percent(processed, total int) int {
	if total <= 0 {
		return 100
	}
	p := int(math.Round(float64(processed) / float64(total) * 100))
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
