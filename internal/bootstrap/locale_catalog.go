package bootstrap

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"line-sieve/internal/domain"
)

// localeCatalog lists the collation locales offered in the settings picker.
// Any other valid BCP 47 tag can still be typed in manually.
var localeCatalog = []string{
	"en", "de", "fr", "es", "it", "pt", "nl", "sv", "da", "nb", "fi",
	"pl", "cs", "tr", "ru", "uk", "el", "ja", "zh", "ko",
}

// GetLocales returns built-in sort locales with display names, marking the
// configured one.
func (a *App) GetLocales() []domain.LocaleOption {
	a.mu.Lock()
	current := a.Settings.Locale
	a.mu.Unlock()

	options := make([]domain.LocaleOption, 0, len(localeCatalog))
	for _, id := range localeCatalog {
		opt, err := describeLocale(id)
		if err != nil {
			continue
		}
		opt.Selected = strings.EqualFold(id, current)
		options = append(options, opt)
	}
	return options
}

// SelectLocale persists a new sort locale and restarts the engine with it.
func (a *App) SelectLocale(localeID string) (domain.Settings, error) {
	id := strings.TrimSpace(localeID)
	if id == "" {
		return domain.Settings{}, fmt.Errorf("locale id is required")
	}
	if _, err := describeLocale(id); err != nil {
		return domain.Settings{}, err
	}

	if a.Store == nil {
		return domain.Settings{}, fmt.Errorf("settings store is not configured")
	}

	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	settings = normalizeSettings(settings)
	settings.Locale = id

	return a.SaveSettings(settings)
}

// describeLocale resolves English and native display names for a tag.
func describeLocale(id string) (domain.LocaleOption, error) {
	tag, err := language.Parse(id)
	if err != nil {
		return domain.LocaleOption{}, fmt.Errorf("unknown locale %q: %w", id, err)
	}

	name := display.English.Tags().Name(tag)
	if name == "" {
		name = tag.String()
	}
	native := display.Self.Name(tag)
	if native == "" {
		native = name
	}

	return domain.LocaleOption{
		ID:         id,
		Name:       name,
		NativeName: native,
	}, nil
}
