package diagnostics

import (
	"fmt"
	"os"
	"strings"
	"time"

	"line-sieve/internal/config"
	"line-sieve/internal/domain"
	"line-sieve/internal/lineset"
)

// Checker validates settings, the sorting locale, and the export directory.
type Checker struct {
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// Run executes all startup checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkSettings(settings),
		c.checkEngine(settings),
		c.checkExportDir(settings.ExportDir),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkSettings validates configured bounds.
func (c *Checker) checkSettings(settings domain.Settings) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "settings",
		Name: "Settings",
	}
	if err := config.Validate(settings); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = err.Error()
		item.Hint = "Open settings and correct the highlighted values, or delete the settings file to restore defaults."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("History limit %d, progress every %d lines", settings.HistoryLimit, settings.ChunkSize)
	return item
}

// checkEngine verifies the processing engine can be built with these settings.
func (c *Checker) checkEngine(settings domain.Settings) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "engine",
		Name: "Processing engine",
	}

	engine, err := lineset.NewEngine(lineset.Config{ChunkSize: settings.ChunkSize, Locale: settings.Locale})
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot start processing engine: %v", err)
		item.Hint = "Set a BCP 47 locale such as en, de, or fr-CA."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Sorting with locale %s", engine.Locale())
	return item
}

// checkExportDir validates export directory existence and write access.
func (c *Checker) checkExportDir(exportDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "export_dir",
		Name: "Export directory",
	}

	if strings.TrimSpace(exportDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Export directory is empty."
		item.Hint = "Set a directory where CSV exports can be written."
		return item
	}

	if err := c.mkdirAll(exportDir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create export directory: %s", exportDir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(exportDir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Export directory is not writable: %s", exportDir)
		item.Hint = "Choose a writable directory for CSV export."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", exportDir)
	return item
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
	}
}
