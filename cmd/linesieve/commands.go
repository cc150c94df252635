package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"line-sieve/internal/config"
	"line-sieve/internal/domain"
	"line-sieve/internal/domains"
	"line-sieve/internal/export"
	"line-sieve/internal/lineset"
	"line-sieve/internal/logger"
)

// stdinPath selects standard input instead of a file.
const stdinPath = "-"

// optionFlags binds processing options shared by commands.
type optionFlags struct {
	caseSensitive bool
	noTrim        bool
	keepEmpty     bool
	sort          bool
}

func (f optionFlags) options() domain.ProcessingOptions {
	return domain.ProcessingOptions{
		CaseSensitive:    f.caseSensitive,
		TrimWhitespace:   !f.noTrim,
		IgnoreEmptyLines: !f.keepEmpty,
		SortResults:      f.sort,
	}
}

func (f *optionFlags) register(cmd *cobra.Command) {
	defaults := config.DefaultSettings()
	cmd.Flags().BoolVarP(&f.caseSensitive, "case-sensitive", "c", defaults.CaseSensitive, "Treat lines differing only in case as distinct")
	cmd.Flags().BoolVar(&f.noTrim, "no-trim", !defaults.TrimWhitespace, "Keep leading and trailing whitespace")
	cmd.Flags().BoolVar(&f.keepEmpty, "keep-empty", !defaults.IgnoreEmptyLines, "Keep blank lines")
	cmd.Flags().BoolVarP(&f.sort, "sort", "s", defaults.SortResults, "Sort output with locale collation")
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "linesieve",
		Short:         "Find lines missing from a reference list, deduplicate lists, and sort domains",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(newDiffCmd(), newDedupeCmd(), newDomainsCmd(), newCountCmd())
	return root
}

func newDiffCmd() *cobra.Command {
	var (
		opts          optionFlags
		referencePath string
		candidatePath string
		locale        string
		chunkSize     int
		asCSV         bool
		xlsxPath      string
	)

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Print candidate lines whose normalized form is absent from the reference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logger.Named("cli")

			reference, err := readInput(cmd, referencePath)
			if err != nil {
				return err
			}
			candidate, err := readInput(cmd, candidatePath)
			if err != nil {
				return err
			}
			if lineset.Trim(candidate) == "" {
				return fmt.Errorf("candidate data is empty")
			}

			engine, err := lineset.NewEngine(lineset.Config{ChunkSize: chunkSize, Locale: locale})
			if err != nil {
				return err
			}

			lines, err := engine.Difference(cmd.Context(), lineset.Request{
				ReferenceText: reference,
				CandidateText: candidate,
				Options:       opts.options(),
			}, func(percent int) {
				log.Debug().Int("percent", percent).Msg("progress")
			})
			if err != nil {
				return err
			}

			log.Info().Int("count", len(lines)).Msgf("Found %d unique items", len(lines))
			if xlsxPath != "" {
				return writeWorkbook(xlsxPath, export.SheetLines, []string{"line"}, [][]string{lines})
			}
			return writeLines(cmd.OutOrStdout(), "line", lines, asCSV)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&referencePath, "reference", "r", "", "Reference file (- for stdin)")
	cmd.Flags().StringVarP(&candidatePath, "candidate", "k", stdinPath, "Candidate file (- for stdin)")
	cmd.Flags().StringVar(&locale, "locale", config.DefaultSettings().Locale, "BCP 47 locale used by --sort")
	cmd.Flags().IntVar(&chunkSize, "chunk", lineset.DefaultChunkSize, "Lines between progress updates")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "Write CSV instead of plain lines")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Write an Excel workbook to this path instead of stdout")
	cmd.MarkFlagsMutuallyExclusive("csv", "xlsx")
	return cmd
}

func newDedupeCmd() *cobra.Command {
	var caseSensitive bool

	cmd := &cobra.Command{
		Use:   "dedupe [file]",
		Short: "Remove duplicate lines, keeping the first occurrence",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, argOrStdin(args))
			if err != nil {
				return err
			}
			out := lineset.DedupeText(text, domain.ProcessingOptions{CaseSensitive: caseSensitive})
			if out == "" {
				return nil
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().BoolVarP(&caseSensitive, "case-sensitive", "c", false, "Treat lines differing only in case as distinct")
	return cmd
}

func newDomainsCmd() *cobra.Command {
	var (
		asCSV    bool
		xlsxPath string
	)

	cmd := &cobra.Command{
		Use:   "domains [file]",
		Short: "Group domain names by extension",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, argOrStdin(args))
			if err != nil {
				return err
			}

			res := domains.Separate(text)
			for _, bad := range res.Invalid {
				fmt.Fprintf(cmd.ErrOrStderr(), "invalid: %s\n", bad)
			}
			logger.Named("cli").Info().
				Int("total", res.Stats.Total).
				Int("valid", res.Stats.Valid).
				Int("invalid", res.Stats.Invalid).
				Int("extensions", res.Stats.Extensions).
				Msg("domains sorted")

			if xlsxPath != "" {
				return writeWorkbook(xlsxPath, export.SheetDomains, res.Extensions, res.Columns())
			}
			if asCSV {
				return export.WriteColumnsCSV(cmd.OutOrStdout(), res.Extensions, res.Columns())
			}
			out := export.FlattenRows(res.Columns())
			if out == "" {
				return nil
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().BoolVar(&asCSV, "csv", false, "Write one CSV column per extension")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Write an Excel workbook with one column per extension")
	cmd.MarkFlagsMutuallyExclusive("csv", "xlsx")
	return cmd
}

func newCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count [file]",
		Short: "Count non-blank lines",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, argOrStdin(args))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), lineset.CountLines(text))
			return err
		},
	}
}

func argOrStdin(args []string) string {
	if len(args) == 0 {
		return stdinPath
	}
	return args[0]
}

// readInput reads a whole file, or standard input for "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == stdinPath {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// writeLines prints one line per entry, or a single-column CSV.
func writeLines(w io.Writer, header string, lines []string, asCSV bool) error {
	if asCSV {
		return export.WriteColumnsCSV(w, []string{header}, [][]string{lines})
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeWorkbook(path, sheet string, headers []string, columns [][]string) error {
	if err := export.WriteXLSXFile(path, sheet, headers, columns); err != nil {
		return err
	}
	logger.Named("cli").Info().Str("path", path).Str("sheet", sheet).Msg("workbook written")
	return nil
}
