package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"line-sieve/internal/export"
)

// runCmd executes the root command with args and stdin, returning stdout.
func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.Execute()
	return out.String(), err
}

// readWorkbook returns the rows of sheet in the workbook at path.
func readWorkbook(t *testing.T, path, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("GetRows(%s): %v", sheet, err)
	}
	return rows
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// TestDiffReadsReferenceFileAndStdin checks the default difference flow.
func TestDiffReadsReferenceFileAndStdin(t *testing.T) {
	ref := writeTemp(t, "ref.txt", "a\nb\na\n")

	out, err := runCmd(t, "a\nb\n\nc\nC\n", "diff", "--reference", ref)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if out != "c\nC\n" {
		t.Fatalf("out = %q", out)
	}
}

// TestDiffOptionsAndCSV checks option flags and CSV output.
func TestDiffOptionsAndCSV(t *testing.T) {
	ref := writeTemp(t, "ref.txt", "Apple\n")
	cand := writeTemp(t, "cand.txt", "pear\napple\nBanana\n")

	out, err := runCmd(t, "", "diff", "-r", ref, "-k", cand, "--case-sensitive", "--sort", "--csv")
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if out != "line\napple\nBanana\npear\n" {
		t.Fatalf("out = %q", out)
	}
}

// TestDiffRejectsEmptyCandidate checks blank candidate input fails.
func TestDiffRejectsEmptyCandidate(t *testing.T) {
	if _, err := runCmd(t, " \n", "diff"); err == nil {
		t.Fatal("expected empty candidate error")
	}
}

// TestDiffRejectsBadLocale checks engine construction errors surface.
func TestDiffRejectsBadLocale(t *testing.T) {
	if _, err := runCmd(t, "a\n", "diff", "--locale", "!!"); err == nil {
		t.Fatal("expected locale error")
	}
}

// TestDedupe checks first-occurrence deduplication from stdin.
func TestDedupe(t *testing.T) {
	out, err := runCmd(t, "x\n X\nY\ny\n\n", "dedupe")
	if err != nil {
		t.Fatalf("dedupe: %v", err)
	}
	if out != "x\nY\n" {
		t.Fatalf("out = %q", out)
	}
}

// TestDomainsCSV checks domain grouping output.
func TestDomainsCSV(t *testing.T) {
	path := writeTemp(t, "domains.txt", "b.com\nx.net\nA.com\nbad host.io\n")

	out, err := runCmd(t, "", "domains", path, "--csv")
	if err != nil {
		t.Fatalf("domains: %v", err)
	}
	if out != "com,net\na.com,x.net\nb.com,\n" {
		t.Fatalf("out = %q", out)
	}
}

// TestDiffWorkbook checks --xlsx writes the result to a workbook, not stdout.
func TestDiffWorkbook(t *testing.T) {
	ref := writeTemp(t, "ref.txt", "a\n")
	path := filepath.Join(t.TempDir(), "out", "unique.xlsx")

	out, err := runCmd(t, "a\nb\nc\n", "diff", "-r", ref, "--xlsx", path)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if out != "" {
		t.Fatalf("stdout = %q, want empty", out)
	}
	want := [][]string{{"line"}, {"b"}, {"c"}}
	if diff := cmp.Diff(want, readWorkbook(t, path, export.SheetLines)); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}

	if _, err := runCmd(t, "a\n", "diff", "--csv", "--xlsx", path); err == nil {
		t.Fatal("expected --csv and --xlsx to conflict")
	}
}

// TestDomainsWorkbook checks one workbook column per extension.
func TestDomainsWorkbook(t *testing.T) {
	src := writeTemp(t, "domains.txt", "b.com\nx.net\nA.com\n")
	path := filepath.Join(t.TempDir(), "domains.xlsx")

	if _, err := runCmd(t, "", "domains", src, "--xlsx", path); err != nil {
		t.Fatalf("domains: %v", err)
	}
	want := [][]string{{"com", "net"}, {"a.com", "x.net"}, {"b.com"}}
	if diff := cmp.Diff(want, readWorkbook(t, path, export.SheetDomains)); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

// TestCount checks non-blank line counting.
func TestCount(t *testing.T) {
	out, err := runCmd(t, "a\n\n b \n", "count")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if out != "2\n" {
		t.Fatalf("out = %q", out)
	}
}
