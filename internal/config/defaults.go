package config

import (
	"os"
	"path/filepath"

	"line-sieve/internal/domain"
	"line-sieve/internal/history"
	"line-sieve/internal/lineset"
)

// DefaultSettings returns baseline local configuration for first launch.
func DefaultSettings() domain.Settings {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return domain.Settings{
		CaseSensitive:    false,
		TrimWhitespace:   true,
		IgnoreEmptyLines: true,
		SortResults:      false,
		HistoryLimit:     history.DefaultLimit,
		ChunkSize:        lineset.DefaultChunkSize,
		Locale:           "en",
		ExportDir:        filepath.Join(homeDir, "Documents", "LineSieve"),
	}
}
