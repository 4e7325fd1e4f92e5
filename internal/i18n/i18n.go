package i18n

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

const (
	LangEN = "en"
	LangES = "es"
)

type Manager struct {
	defaultLanguage string
	locales         map[string]map[string]string
	supported       []string
	matchOrder      []string
	matcher         language.Matcher
}

func NewManager(defaultLanguage string, localesDir string) (*Manager, error) {
	manager := &Manager{
		locales: map[string]map[string]string{},
	}

	entries, err := os.ReadDir(localesDir)
	if err != nil {
		return nil, fmt.Errorf("read locales dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		code := strings.TrimSuffix(strings.ToLower(entry.Name()), filepath.Ext(entry.Name()))
		if _, err := language.ParseBase(code); err != nil {
			return nil, fmt.Errorf("locale file %s is not a language code: %w", entry.Name(), err)
		}

		content, err := os.ReadFile(filepath.Join(localesDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", code, err)
		}

		messages := map[string]string{}
		if err := json.Unmarshal(content, &messages); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", code, err)
		}
		if len(messages) == 0 {
			return nil, fmt.Errorf("locale %s is empty", code)
		}

		manager.locales[code] = messages
		manager.supported = append(manager.supported, code)
	}

	if len(manager.supported) == 0 {
		return nil, fmt.Errorf("no locales found in %s", localesDir)
	}
	if _, ok := manager.locales[LangEN]; !ok {
		return nil, fmt.Errorf("required locale %q missing", LangEN)
	}
	sort.Strings(manager.supported)

	manager.defaultLanguage = LangEN
	if candidate := baseLanguage(defaultLanguage); manager.isSupported(candidate) {
		manager.defaultLanguage = candidate
	}

	// The matcher falls back to its first tag, so the default language leads.
	manager.matchOrder = append([]string{manager.defaultLanguage}, manager.othersThan(manager.defaultLanguage)...)
	tags := make([]language.Tag, 0, len(manager.matchOrder))
	for _, code := range manager.matchOrder {
		tags = append(tags, language.Make(code))
	}
	manager.matcher = language.NewMatcher(tags)
	return manager, nil
}

func (manager *Manager) DefaultLanguage() string {
	return manager.defaultLanguage
}

func (manager *Manager) SupportedLanguages() []string {
	result := make([]string, len(manager.supported))
	copy(result, manager.supported)
	return result
}

func (manager *Manager) NormalizeLanguage(raw string) string {
	normalized := baseLanguage(raw)
	if manager.isSupported(normalized) {
		return normalized
	}
	return manager.defaultLanguage
}

// DetectFromAcceptLanguage picks the best supported language for an
// Accept-Language header, honoring quality weights.
func (manager *Manager) DetectFromAcceptLanguage(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return manager.defaultLanguage
	}

	preferred, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(preferred) == 0 {
		return manager.defaultLanguage
	}

	_, index, confidence := manager.matcher.Match(preferred...)
	if confidence == language.No || index < 0 || index >= len(manager.matchOrder) {
		return manager.defaultLanguage
	}
	return manager.matchOrder[index]
}

func (manager *Manager) Messages(language string) map[string]string {
	defaultMessages := manager.locales[manager.defaultLanguage]
	targetMessages := manager.locales[manager.NormalizeLanguage(language)]

	result := make(map[string]string, len(defaultMessages)+len(targetMessages))
	for key, value := range defaultMessages {
		result[key] = value
	}
	for key, value := range targetMessages {
		result[key] = value
	}
	return result
}

func (manager *Manager) Translate(language string, key string) string {
	messages := manager.Messages(language)
	if value, ok := messages[key]; ok && strings.TrimSpace(value) != "" {
		return value
	}
	return key
}

func (manager *Manager) Translatef(language string, key string, args ...any) string {
	return fmt.Sprintf(manager.Translate(language, key), args...)
}

func (manager *Manager) isSupported(code string) bool {
	if code == "" {
		return false
	}
	_, ok := manager.locales[code]
	return ok
}

func (manager *Manager) othersThan(code string) []string {
	others := make([]string, 0, len(manager.supported))
	for _, candidate := range manager.supported {
		if candidate != code {
			others = append(others, candidate)
		}
	}
	return others
}

func baseLanguage(raw string) string {
	trimmed := strings.TrimSpace(strings.ReplaceAll(raw, "_", "-"))
	if trimmed == "" {
		return ""
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return ""
	}
	base, _ := tag.Base()
	return base.String()
}
