// Package localization provides functionality for internationalization (i18n).
// It loads translation strings from JSON files and provides a simple way to get
// localized strings for different languages.
package localization

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"
)

// DefaultLanguage is used when neither the requested language nor English has a key.
const DefaultLanguage = "uk"

//go:embed locales/*.json
var embedded embed.FS

// Localizer manages the translations for the application.
// It holds a map of languages, each with its own map of translation keys and values.
type Localizer struct {
	translations map[string]map[string]string
	mu           sync.RWMutex
}

// NewLocalizer returns a Localizer over the catalogues compiled into the binary.
func NewLocalizer() (*Localizer, error) {
	return Load(embedded, "locales")
}

// Load reads every "<lang>.json" file in dir of fsys.
func Load(fsys fs.FS, dir string) (*Localizer, error) {
	l := &Localizer{
		translations: make(map[string]map[string]string),
	}

	files, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read localization directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}

		lang := strings.TrimSuffix(file.Name(), ".json")
		data, err := fs.ReadFile(fsys, path.Join(dir, file.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read localization file %s: %w", file.Name(), err)
		}

		var translations map[string]string
		if err := json.Unmarshal(data, &translations); err != nil {
			return nil, fmt.Errorf("failed to parse localization file %s: %w", file.Name(), err)
		}

		l.translations[lang] = translations
	}

	return l, nil
}

// GetString returns the localized string for a given key and language.
// It falls back to English, then to DefaultLanguage, then to the key itself.
func (l *Localizer) GetString(lang, key string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, candidate := range []string{lang, "en", DefaultLanguage} {
		if langTranslations, ok := l.translations[candidate]; ok {
			if value, ok := langTranslations[key]; ok {
				return value
			}
		}
	}

	return key
}

// Format looks up key and formats it with args.
func (l *Localizer) Format(lang, key string, args ...any) string {
	return fmt.Sprintf(l.GetString(lang, key), args...)
}

// Resolve returns code when a catalogue exists for it, otherwise fallback.
// Region suffixes such as "en-GB" are ignored.
func (l *Localizer) Resolve(code, fallback string) string {
	code = strings.ToLower(code)
	if base, _, ok := strings.Cut(code, "-"); ok {
		code = base
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if _, ok := l.translations[code]; ok {
		return code
	}
	return fallback
}

// Matches reports whether text equals the value of key in any language.
// Used to recognise reply-keyboard buttons whatever language they were shown in.
func (l *Localizer) Matches(key, text string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, translations := range l.translations {
		if value, ok := translations[key]; ok && value == text {
			return true
		}
	}
	return false
}
