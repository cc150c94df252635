package lineset

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"line-sieve/internal/domain"
)

var defaultOpts = domain.ProcessingOptions{
	CaseSensitive:    false,
	TrimWhitespace:   true,
	IgnoreEmptyLines: true,
	SortResults:      false,
}

// mustEngine builds an engine or fails the test.
func mustEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

// TestKey checks trim and case folding combinations.
func TestKey(t *testing.T) {
	tests := []struct {
		name string
		line string
		opts domain.ProcessingOptions
		want string
	}{
		{"fold and trim", "  Example.COM ", domain.ProcessingOptions{TrimWhitespace: true}, "example.com"},
		{"case sensitive trim", "  Example.COM ", domain.ProcessingOptions{TrimWhitespace: true, CaseSensitive: true}, "Example.COM"},
		{"no trim", " a ", domain.ProcessingOptions{CaseSensitive: true}, " a "},
		{"inner space kept", "A  B", domain.ProcessingOptions{TrimWhitespace: true}, "a  b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Key(tt.line, tt.opts); got != tt.want {
				t.Fatalf("Key(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

// TestSplitLinesEmptyPolicy verifies blank line filtering.
func TestSplitLinesEmptyPolicy(t *testing.T) {
	text := "a\n\n  \nb"
	if diff := cmp.Diff([]string{"a", "b"}, SplitLines(text, true)); diff != "" {
		t.Fatalf("ignore empty mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "", "  ", "b"}, SplitLines(text, false)); diff != "" {
		t.Fatalf("keep empty mismatch (-want +got):\n%s", diff)
	}
	if got := CountLines(text); got != 2 {
		t.Fatalf("CountLines() = %d, want 2", got)
	}
}

// TestDifferenceWorkedExample covers the mixed-case reference scenario.
func TestDifferenceWorkedExample(t *testing.T) {
	e := mustEngine(t, Config{})
	got, err := e.Difference(context.Background(), Request{
		ReferenceText: "a\nb\na",
		CandidateText: "a\nb\nc\nC",
		Options:       defaultOpts,
	}, nil)
	if err != nil {
		t.Fatalf("Difference() error = %v", err)
	}
	if diff := cmp.Diff([]string{"c", "C"}, got); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

// TestDifferenceCaseToggle verifies case-sensitivity controls duplicates.
func TestDifferenceCaseToggle(t *testing.T) {
	e := mustEngine(t, Config{})
	req := Request{ReferenceText: "Example.com", CandidateText: "example.com"}

	req.Options = defaultOpts
	got, err := e.Difference(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("Difference() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("case-insensitive result = %v, want empty", got)
	}

	req.Options.CaseSensitive = true
	got, err = e.Difference(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("Difference() error = %v", err)
	}
	if diff := cmp.Diff([]string{"example.com"}, got); diff != "" {
		t.Fatalf("case-sensitive mismatch (-want +got):\n%s", diff)
	}
}

// TestDifferenceEdgeCases covers empty and all-duplicate inputs.
func TestDifferenceEdgeCases(t *testing.T) {
	e := mustEngine(t, Config{})
	tests := []struct {
		name      string
		reference string
		candidate string
		opts      domain.ProcessingOptions
		want      []string
	}{
		{"empty reference passes through", "", " x \n\ny", defaultOpts, []string{"x", "y"}},
		{"empty candidate", "a", "", defaultOpts, []string{}},
		{"all duplicates", "a\nb", "B\na\nA", defaultOpts, []string{}},
		{
			"blank lines participate when kept",
			"a\n",
			"\nb\n",
			domain.ProcessingOptions{TrimWhitespace: true},
			[]string{"b"},
		},
		{
			"untrimmed display keeps spaces",
			"a",
			" a\nb ",
			domain.ProcessingOptions{},
			[]string{" a", "b "},
		},
		{
			"candidate duplicates preserved",
			"z",
			"q\nq\nQ",
			defaultOpts,
			[]string{"q", "q", "Q"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Difference(context.Background(), Request{
				ReferenceText: tt.reference,
				CandidateText: tt.candidate,
				Options:       tt.opts,
			}, nil)
			if err != nil {
				t.Fatalf("Difference() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestDifferenceExcludesReferenceKeys checks no survivor shares a reference key.
func TestDifferenceExcludesReferenceKeys(t *testing.T) {
	e := mustEngine(t, Config{})
	reference := "alpha\n Beta\nGAMMA\n\n"
	candidate := "ALPHA\nbeta \ndelta\ngamma\nEpsilon\n delta"
	for _, opts := range []domain.ProcessingOptions{
		defaultOpts,
		{CaseSensitive: true, TrimWhitespace: true, IgnoreEmptyLines: true},
		{},
		{SortResults: true, IgnoreEmptyLines: true},
	} {
		got, err := e.Difference(context.Background(), Request{reference, candidate, opts}, nil)
		if err != nil {
			t.Fatalf("Difference() error = %v", err)
		}
		ref := ReferenceSet(reference, opts)
		for _, line := range got {
			if _, ok := ref[Key(line, opts)]; ok {
				t.Fatalf("opts %+v: survivor %q has a reference key", opts, line)
			}
		}

		again, err := e.Difference(context.Background(), Request{reference, candidate, opts}, nil)
		if err != nil {
			t.Fatalf("Difference() error = %v", err)
		}
		if diff := cmp.Diff(got, again); diff != "" {
			t.Fatalf("opts %+v: not deterministic (-first +second):\n%s", opts, diff)
		}
	}
}

// TestDifferenceSortsWithCollation verifies locale-aware ordering.
func TestDifferenceSortsWithCollation(t *testing.T) {
	e := mustEngine(t, Config{Locale: "en"})
	opts := defaultOpts
	opts.SortResults = true
	opts.CaseSensitive = true

	got, err := e.Difference(context.Background(), Request{
		CandidateText: "banana\nÉclair\napple\nCherry",
		Options:       opts,
	}, nil)
	if err != nil {
		t.Fatalf("Difference() error = %v", err)
	}
	if diff := cmp.Diff([]string{"apple", "banana", "Cherry", "Éclair"}, got); diff != "" {
		t.Fatalf("sorted mismatch (-want +got):\n%s", diff)
	}
}

// TestDifferenceProgress verifies chunked, non-decreasing progress events.
func TestDifferenceProgress(t *testing.T) {
	e := mustEngine(t, Config{ChunkSize: 10})
	lines := make([]string, 100)
	for i := range lines {
		lines[i] = fmt.Sprintf("line-%d", i)
	}

	var got []int
	result, err := e.Difference(context.Background(), Request{
		CandidateText: strings.Join(lines, "\n"),
		Options:       defaultOpts,
	}, func(p int) { got = append(got, p) })
	if err != nil {
		t.Fatalf("Difference() error = %v", err)
	}
	if len(result) != 100 {
		t.Fatalf("len(result) = %d, want 100", len(result))
	}

	want := []int{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("progress mismatch (-want +got):\n%s", diff)
	}
}

// TestDifferenceStopsOnCancelledContext checks chunk-boundary cancellation.
func TestDifferenceStopsOnCancelledContext(t *testing.T) {
	e := mustEngine(t, Config{ChunkSize: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Difference(ctx, Request{CandidateText: "a\nb", Options: defaultOpts}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want %v", err, context.Canceled)
	}
}

// TestNewEngineRejectsBadLocale checks locale parsing errors.
func TestNewEngineRejectsBadLocale(t *testing.T) {
	if _, err := NewEngine(Config{Locale: "not a locale!"}); err == nil {
		t.Fatal("expected locale parse error")
	}
}

// TestPercent checks rounding and clamping.
func TestPercent(t *testing.T) {
	if got := Percent(1, 3); got != 33 {
		t.Fatalf("Percent(1, 3) = %d, want 33", got)
	}
	if got := Percent(2, 3); got != 67 {
		t.Fatalf("Percent(2, 3) = %d, want 67", got)
	}
	if got := Percent(0, 0); got != 100 {
		t.Fatalf("Percent(0, 0) = %d, want 100", got)
	}
}

// TestDedupe verifies first-seen-wins self-deduplication and idempotence.
func TestDedupe(t *testing.T) {
	text := " Foo\nbar\n\nfoo\nBAR \nbaz"
	got := Dedupe(text, defaultOpts)
	if diff := cmp.Diff([]string{"Foo", "bar", "baz"}, got); diff != "" {
		t.Fatalf("dedupe mismatch (-want +got):\n%s", diff)
	}

	once := DedupeText(text, defaultOpts)
	if twice := DedupeText(once, defaultOpts); twice != once {
		t.Fatalf("dedupe not idempotent: %q then %q", once, twice)
	}

	sensitive := defaultOpts
	sensitive.CaseSensitive = true
	got = Dedupe(text, sensitive)
	if diff := cmp.Diff([]string{"Foo", "bar", "foo", "BAR", "baz"}, got); diff != "" {
		t.Fatalf("case-sensitive dedupe mismatch (-want +got):\n%s", diff)
	}
}

// TestTrim checks the stripped whitespace set, including BOM and NEL.
func TestTrim(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"\ufeffexample.com", "example.com"},
		{"x\u0085", "x\u0085"},
		{"  a b\u3000", "a b"},
		{"\v\f\r\t x   ", "x"},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := Trim(tt.in); got != tt.want {
			t.Fatalf("Trim(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestDifferenceByteOrderMarkAndNEL checks a BOM-prefixed first line matches
// the reference and NEL is kept as content.
func TestDifferenceByteOrderMarkAndNEL(t *testing.T) {
	e := mustEngine(t, Config{})
	got, err := e.Difference(context.Background(), Request{
		ReferenceText: "example.com",
		CandidateText: "\ufeffexample.com\nx\u0085",
		Options:       defaultOpts,
	}, nil)
	if err != nil {
		t.Fatalf("Difference() error = %v", err)
	}
	if diff := cmp.Diff([]string{"x\u0085"}, got); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}

	if got := CountLines("\ufeff\n\u0085\n a "); got != 2 {
		t.Fatalf("CountLines() = %d, want 2", got)
	}
	if diff := cmp.Diff([]string{"a", "b\u0085"}, Dedupe("\ufeffa\na \nb\u0085", defaultOpts)); diff != "" {
		t.Fatalf("dedupe mismatch (-want +got):\n%s", diff)
	}
}
