package bootstrap

import (
	"fmt"
	"os"
	"strings"

	"line-sieve/internal/config"
	"line-sieve/internal/domain"
	"line-sieve/internal/lineset"
)

// FixDiagnostic applies a remediation for one failed diagnostic item and
// returns the refreshed report.
func (a *App) FixDiagnostic(itemID string) (domain.DiagnosticReport, error) {
	if a.Store == nil {
		return domain.DiagnosticReport{}, fmt.Errorf("settings store is not configured")
	}

	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.DiagnosticReport{}, fmt.Errorf("diagnostic item id is required")
	}

	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}
	settings = normalizeSettings(settings)

	settingsChanged := false
	restartEngine := false
	var fixErr error

	switch id {
	case "settings":
		settings, settingsChanged = fixSettingsBounds(settings)
		restartEngine = settingsChanged
	case "engine":
		settings, settingsChanged = fixEngineLocale(settings)
		restartEngine = true
	case "export_dir":
		settings, settingsChanged, fixErr = fixExportDir(settings)
	default:
		return domain.DiagnosticReport{}, fmt.Errorf("unsupported diagnostic item id: %s", id)
	}

	if settingsChanged {
		if saveErr := a.Store.Save(settings); saveErr != nil {
			report := a.refreshDiagnosticsFromSettings(settings)
			return report, fmt.Errorf("save settings after fix: %w", saveErr)
		}
		a.History.SetLimit(settings.HistoryLimit)
	}

	report := a.refreshDiagnosticsFromSettings(settings)
	if restartEngine {
		if err := a.startEngine(settings); err != nil {
			return report, err
		}
	}
	if fixErr != nil {
		return report, fixErr
	}
	return report, nil
}

func (a *App) refreshDiagnosticsFromSettings(settings domain.Settings) domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Settings = settings
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(settings)
	}
	return a.Diagnostics
}

// fixSettingsBounds resets out-of-range numeric settings to defaults.
func fixSettingsBounds(settings domain.Settings) (domain.Settings, bool) {
	if config.Validate(settings) == nil {
		return settings, false
	}

	defaults := config.DefaultSettings()
	trial := defaults
	trial.HistoryLimit = settings.HistoryLimit
	if config.Validate(trial) != nil {
		settings.HistoryLimit = defaults.HistoryLimit
	}
	trial = defaults
	trial.ChunkSize = settings.ChunkSize
	if config.Validate(trial) != nil {
		settings.ChunkSize = defaults.ChunkSize
	}
	trial = defaults
	trial.Locale = settings.Locale
	if config.Validate(trial) != nil {
		settings.Locale = defaults.Locale
	}
	return settings, true
}

// fixEngineLocale falls back to the default locale when the configured one
// cannot build an engine.
func fixEngineLocale(settings domain.Settings) (domain.Settings, bool) {
	if _, err := lineset.NewEngine(lineset.Config{ChunkSize: settings.ChunkSize, Locale: settings.Locale}); err == nil {
		return settings, false
	}
	settings.Locale = config.DefaultSettings().Locale
	return settings, true
}

// fixExportDir restores the default export directory when unset and creates it.
func fixExportDir(settings domain.Settings) (domain.Settings, bool, error) {
	exportDir := strings.TrimSpace(settings.ExportDir)
	changed := false
	if exportDir == "" {
		exportDir = config.DefaultSettings().ExportDir
		settings.ExportDir = exportDir
		changed = true
	}

	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return settings, changed, fmt.Errorf("create export directory %s: %w", exportDir, err)
	}

	return settings, changed, nil
}
