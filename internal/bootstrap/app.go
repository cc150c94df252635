package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"line-sieve/internal/config"
	"line-sieve/internal/diagnostics"
	"line-sieve/internal/domain"
	"line-sieve/internal/domains"
	"line-sieve/internal/export"
	"line-sieve/internal/history"
	"line-sieve/internal/jobs"
	"line-sieve/internal/lineset"
	"line-sieve/internal/logger"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// Input field names accepted by the edit history methods.
const (
	FieldReference = "reference"
	FieldCandidate = "candidate"
)

var csvDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "CSV files",
		Pattern:     "*.csv",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

var xlsxDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Excel workbooks",
		Pattern:     "*.xlsx",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

// App wires configuration, history, the processing runner, and UI runtime callbacks.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Jobs        *jobs.Manager
	History     *history.Fields
	Diagnostics domain.DiagnosticReport
	assets      fs.FS
	checker     *diagnostics.Checker
	newEngine   engineFactory
	log         *logger.Logger

	mu          sync.Mutex
	runner      *jobs.Runner
	engineErr   error
	lastResult  []string
	lastDomains domains.Result
	events      *jobs.EventBus
	runtimeCtx  context.Context
}

// engineFactory isolates engine construction so tests can inject fakes.
type engineFactory func(cfg lineset.Config) (jobs.Engine, error)

// defaultEngineFactory builds the production line-set engine.
func defaultEngineFactory(cfg lineset.Config) (jobs.Engine, error) {
	engine, err := lineset.NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	return engine, nil
}

// New builds the application with persisted settings and startup diagnostics.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user home: %w", err)
	}

	store := config.NewJSONStore(filepath.Join(homeDir, ".line-sieve", "settings.json"))
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	app := newApp(normalizeSettings(settings), store, defaultEngineFactory)
	app.assets = assets
	app.checker = diagnostics.NewChecker()
	app.Diagnostics = app.checker.Run(app.Settings)
	return app, nil
}

// newApp assembles an App and starts its processing engine.
func newApp(settings domain.Settings, store config.Store, factory engineFactory) *App {
	app := &App{
		Settings:  settings,
		Store:     store,
		Jobs:      jobs.NewManager(),
		History:   history.NewFields(settings.HistoryLimit, FieldReference, FieldCandidate),
		newEngine: factory,
		log:       logger.Named("app"),
		events:    jobs.NewEventBus(1000),
	}
	_ = app.startEngine(settings)
	return app
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	return wails.Run(&options.App{
		Title:       "Line Sieve",
		Width:       1180,
		Height:      820,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown:  a.Shutdown,
		Bind:        []interface{}{a},
	})
}

// Startup stores Wails runtime context for push events.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// Shutdown disposes the background runner and drops the runtime context.
func (a *App) Shutdown(ctx context.Context) {
	a.mu.Lock()
	runner := a.runner
	a.runner = nil
	a.engineErr = jobs.ErrEngineUnavailable
	a.runtimeCtx = nil
	a.mu.Unlock()

	if runner != nil {
		runner.Close()
	}
	a.log.Info().Msg("session ended")
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// RefreshDiagnostics reloads settings and reruns startup checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.Settings = normalizeSettings(settings)
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(a.Settings)
	}
	return a.Diagnostics, nil
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = normalizeSettings(settings)
	a.mu.Unlock()

	return settings, nil
}

// SaveSettings normalizes and persists settings, then applies them to the
// history cap and, when engine parameters changed, restarts the engine.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := normalizeSettings(settings)
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	a.mu.Lock()
	prev := a.Settings
	a.Settings = normalized
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(normalized)
	}
	a.mu.Unlock()

	a.History.SetLimit(normalized.HistoryLimit)
	if prev.ChunkSize != normalized.ChunkSize || prev.Locale != normalized.Locale {
		if err := a.startEngine(normalized); err != nil {
			return normalized, err
		}
	}

	return normalized, nil
}

// RestartEngine disposes the current runner and builds a fresh one.
func (a *App) RestartEngine() error {
	a.mu.Lock()
	settings := a.Settings
	a.mu.Unlock()
	return a.startEngine(settings)
}

// EditField records a new value for an input field.
func (a *App) EditField(field, value string) (history.State, error) {
	buf, err := a.History.Get(field)
	if err != nil {
		return history.State{}, err
	}
	buf.Push(value)
	return buf.State(), nil
}

// UndoField steps an input field back one edit.
func (a *App) UndoField(field string) (history.State, error) {
	buf, err := a.History.Get(field)
	if err != nil {
		return history.State{}, err
	}
	buf.Undo()
	return buf.State(), nil
}

// RedoField steps an input field forward one edit.
func (a *App) RedoField(field string) (history.State, error) {
	buf, err := a.History.Get(field)
	if err != nil {
		return history.State{}, err
	}
	buf.Redo()
	return buf.State(), nil
}

// FieldState returns the current value and undo/redo availability of a field.
func (a *App) FieldState(field string) (history.State, error) {
	buf, err := a.History.Get(field)
	if err != nil {
		return history.State{}, err
	}
	return buf.State(), nil
}

// ClearAll resets both inputs, their histories, and the last result.
// A job still in flight is aborted so its output cannot refill the result.
func (a *App) ClearAll() {
	a.mu.Lock()
	runner := a.runner
	a.mu.Unlock()
	if runner != nil {
		runner.Abort("Processing stopped: data cleared")
	}

	a.History.ResetAll()

	a.mu.Lock()
	a.lastResult = nil
	a.mu.Unlock()
	a.log.Debug().Msg("cleared all data")
}

// DedupeReference removes duplicate lines from the reference field in place.
// The deduplicated text is pushed onto the field history so it can be undone.
func (a *App) DedupeReference() (history.State, error) {
	buf, err := a.History.Get(FieldReference)
	if err != nil {
		return history.State{}, err
	}

	a.mu.Lock()
	opts := a.Settings.Options()
	a.mu.Unlock()

	before := buf.Current()
	deduped := lineset.DedupeText(before, opts)
	buf.Push(deduped)
	a.log.Debug().
		Int("before", lineset.CountLines(before)).
		Int("after", lineset.CountLines(deduped)).
		Msg("reference deduplicated")
	return buf.State(), nil
}

// CountLines counts non-blank lines in text.
func (a *App) CountLines(text string) int {
	return lineset.CountLines(text)
}

// Process submits the current field values using the saved option settings.
func (a *App) Process() (domain.Job, error) {
	a.mu.Lock()
	opts := a.Settings.Options()
	a.mu.Unlock()
	return a.ProcessWithOptions(opts)
}

// ProcessWithOptions submits the current field values with explicit options.
// It returns as soon as the job is pending; results arrive as events.
func (a *App) ProcessWithOptions(opts domain.ProcessingOptions) (domain.Job, error) {
	ref, err := a.History.Get(FieldReference)
	if err != nil {
		return domain.Job{}, err
	}
	cand, err := a.History.Get(FieldCandidate)
	if err != nil {
		return domain.Job{}, err
	}

	return a.submit(lineset.Request{
		ReferenceText: ref.Current(),
		CandidateText: cand.Current(),
		Options:       opts,
	})
}

// CurrentJob returns current job metadata and status.
func (a *App) CurrentJob() domain.Job {
	return a.Jobs.Current()
}

// JobEvents returns all events with sequence greater than sinceSeq.
func (a *App) JobEvents(sinceSeq int64) []jobs.Event {
	return a.events.Since(sinceSeq)
}

// Result returns the lines of the most recent completed job.
func (a *App) Result() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.lastResult...)
}

// ResultText returns the most recent result joined by newlines.
func (a *App) ResultText() string {
	return strings.Join(a.Result(), "\n")
}

// SortDomains partitions domain names by extension and keeps the result for export.
func (a *App) SortDomains(text string) domains.Result {
	res := domains.Separate(text)

	a.mu.Lock()
	a.lastDomains = res
	a.mu.Unlock()

	a.log.Debug().
		Int("total", res.Stats.Total).
		Int("invalid", res.Stats.Invalid).
		Int("extensions", res.Stats.Extensions).
		Msg("domains sorted")
	return res
}

// DomainsText returns the last sorted domains flattened row by row.
func (a *App) DomainsText() string {
	a.mu.Lock()
	res := a.lastDomains
	a.mu.Unlock()
	return export.FlattenRows(res.Columns())
}

// CopyToClipboard places text on the system clipboard.
func (a *App) CopyToClipboard(text string) error {
	if text == "" {
		return fmt.Errorf("nothing to copy")
	}
	ctx, err := a.runtimeContext()
	if err != nil {
		return err
	}
	if err := wailsruntime.ClipboardSetText(ctx, text); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}

// ExportResultCSV asks for a destination and writes the last result as CSV.
func (a *App) ExportResultCSV() (string, error) {
	path, err := a.pickExportPath("Export unique lines", "unique_lines.csv", csvDialogFilter)
	if err != nil || path == "" {
		return "", err
	}
	return path, a.writeResultCSV(path)
}

// ExportResultXLSX asks for a destination and writes the last result as a workbook.
func (a *App) ExportResultXLSX() (string, error) {
	path, err := a.pickExportPath("Export unique lines", "unique_lines.xlsx", xlsxDialogFilter)
	if err != nil || path == "" {
		return "", err
	}
	return path, a.writeResultXLSX(path)
}

// ExportDomainsCSV asks for a destination and writes the sorted domains as CSV.
func (a *App) ExportDomainsCSV() (string, error) {
	path, err := a.pickExportPath("Export sorted domains", "sorted_domains.csv", csvDialogFilter)
	if err != nil || path == "" {
		return "", err
	}
	return path, a.writeDomainsCSV(path)
}

// ExportDomainsXLSX asks for a destination and writes the sorted domains as a workbook.
func (a *App) ExportDomainsXLSX() (string, error) {
	path, err := a.pickExportPath("Export sorted domains", "sorted_domains.xlsx", xlsxDialogFilter)
	if err != nil || path == "" {
		return "", err
	}
	return path, a.writeDomainsXLSX(path)
}

// OpenExportFolder opens the given path (or configured export dir) in file manager.
func (a *App) OpenExportFolder(path string) error {
	target := strings.TrimSpace(path)
	if target == "" {
		a.mu.Lock()
		target = a.Settings.ExportDir
		a.mu.Unlock()
	}
	if target == "" {
		return fmt.Errorf("export path is empty")
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("resolve export path: %w", err)
	}

	openPath := target
	if !info.IsDir() {
		openPath = filepath.Dir(target)
	}

	return openInFileManager(openPath)
}

// submit hands a request to the runner, reporting an unavailable engine distinctly.
func (a *App) submit(req lineset.Request) (domain.Job, error) {
	a.mu.Lock()
	runner := a.runner
	engineErr := a.engineErr
	a.mu.Unlock()

	if runner == nil {
		if engineErr == nil {
			engineErr = jobs.ErrEngineUnavailable
		}
		return domain.Job{}, engineErr
	}

	job, err := runner.Submit(req)
	if err != nil {
		var validationErr *jobs.ValidationError
		if !errors.As(err, &validationErr) {
			a.log.Error().Err(err).Msg("submit failed")
		}
		return domain.Job{}, err
	}
	return job, nil
}

// startEngine replaces the runner. A construction failure is published once
// as an engine_unavailable event and kept for later submissions.
func (a *App) startEngine(settings domain.Settings) error {
	a.mu.Lock()
	old := a.runner
	a.runner = nil
	a.mu.Unlock()
	if old != nil {
		old.Abort("Processing stopped: engine restarted")
		old.Close()
	}

	engine, err := a.newEngine(lineset.Config{ChunkSize: settings.ChunkSize, Locale: settings.Locale})
	var runner *jobs.Runner
	if err == nil {
		runner, err = jobs.NewRunner(engine, a.Jobs, a.publishEvent, logger.Named("jobs"))
	}

	if err != nil {
		if !errors.Is(err, jobs.ErrEngineUnavailable) {
			err = fmt.Errorf("%w: %v", jobs.ErrEngineUnavailable, err)
		}
		a.mu.Lock()
		a.engineErr = err
		a.mu.Unlock()

		a.log.Error().Err(err).Msg("processing engine unavailable")
		a.publishEvent(jobs.Event{
			Type:      jobs.EventTypeError,
			Message:   err.Error(),
			ErrorKind: jobs.ErrorKindEngineUnavailable,
		})
		return err
	}

	a.mu.Lock()
	a.runner = runner
	a.engineErr = nil
	a.mu.Unlock()
	return nil
}

// publishEvent stores event history, keeps the latest result, and emits
// runtime push notifications. Buffered events carry only the result count;
// the lines travel in the push and stay available through Result.
func (a *App) publishEvent(event jobs.Event) {
	stored := event
	stored.Lines = nil
	published := a.events.Publish(stored)

	a.mu.Lock()
	if event.Type == jobs.EventTypeDone {
		a.lastResult = event.Lines
	}
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		published.Lines = event.Lines
		wailsruntime.EventsEmit(ctx, "job:event", published)
	}
}

// pickExportPath opens a native save dialog rooted at the export directory.
func (a *App) pickExportPath(title, filename string, filters []wailsruntime.FileFilter) (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	a.mu.Lock()
	dir := a.Settings.ExportDir
	a.mu.Unlock()

	path, err := wailsruntime.SaveFileDialog(ctx, wailsruntime.SaveDialogOptions{
		Title:            title,
		DefaultDirectory: dir,
		DefaultFilename:  filename,
		Filters:          filters,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(path), nil
}

// writeResultCSV writes the last result as a single "line" column.
func (a *App) writeResultCSV(path string) error {
	lines, err := a.exportableResult()
	if err != nil {
		return err
	}
	return export.WriteFile(path, []string{"line"}, [][]string{lines})
}

// writeResultXLSX writes the last result as a single "line" column workbook.
func (a *App) writeResultXLSX(path string) error {
	lines, err := a.exportableResult()
	if err != nil {
		return err
	}
	return export.WriteXLSXFile(path, export.SheetLines, []string{"line"}, [][]string{lines})
}

// writeDomainsCSV writes one column per extension.
func (a *App) writeDomainsCSV(path string) error {
	res, err := a.exportableDomains()
	if err != nil {
		return err
	}
	return export.WriteFile(path, res.Extensions, res.Columns())
}

// writeDomainsXLSX writes one workbook column per extension.
func (a *App) writeDomainsXLSX(path string) error {
	res, err := a.exportableDomains()
	if err != nil {
		return err
	}
	return export.WriteXLSXFile(path, export.SheetDomains, res.Extensions, res.Columns())
}

func (a *App) exportableResult() ([]string, error) {
	lines := a.Result()
	if len(lines) == 0 {
		return nil, fmt.Errorf("no result to export")
	}
	return lines, nil
}

func (a *App) exportableDomains() (domains.Result, error) {
	a.mu.Lock()
	res := a.lastDomains
	a.mu.Unlock()

	if len(res.Extensions) == 0 {
		return domains.Result{}, fmt.Errorf("no domains to export")
	}
	return res, nil
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

// normalizeSettings trims user inputs and applies defaults for empty values.
func normalizeSettings(settings domain.Settings) domain.Settings {
	defaults := config.DefaultSettings()
	settings.Locale = strings.TrimSpace(settings.Locale)
	settings.ExportDir = strings.TrimSpace(settings.ExportDir)
	if settings.Locale == "" {
		settings.Locale = defaults.Locale
	}
	if settings.ExportDir == "" {
		settings.ExportDir = defaults.ExportDir
	}
	if settings.HistoryLimit <= 0 {
		settings.HistoryLimit = defaults.HistoryLimit
	}
	if settings.ChunkSize <= 0 {
		settings.ChunkSize = defaults.ChunkSize
	}
	return settings
}

// openInFileManager launches the platform file explorer for the provided path.
func openInFileManager(path string) error {
	var cmd *exec.Cmd
	switch goruntime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", filepath.Clean(path))
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch file manager: %w", err)
	}
	return nil
}
