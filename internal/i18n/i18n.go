package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed translations/*.json
var translationsFS embed.FS

// DefaultLanguage is used when a user's language is unknown or unsupported.
const DefaultLanguage = "en"

// SupportedLanguages lists the shipped translation files.
var SupportedLanguages = []string{"en", "uk"}

// Translator resolves dot-notation keys against embedded translation trees.
type Translator struct {
	translations map[string]map[string]any
}

// New loads every supported translation file from the embedded FS.
func New() (*Translator, error) {
	tr := &Translator{translations: make(map[string]map[string]any)}
	for _, lang := range SupportedLanguages {
		raw, err := translationsFS.ReadFile("translations/" + lang + ".json")
		if err != nil {
			return nil, fmt.Errorf("read translations %s: %w", lang, err)
		}
		var tree map[string]any
		if err := json.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("parse translations %s: %w", lang, err)
		}
		tr.translations[lang] = tree
	}
	return tr, nil
}

// Get returns the translation for key ("menu.title", ...) in lang.
// Lookup falls back to the default language and finally to the key itself,
// so a missing translation is visible but never fatal.
func (t *Translator) Get(lang, key string) string {
	if !t.Supported(lang) {
		lang = DefaultLanguage
	}
	if s, ok := lookup(t.translations[lang], key); ok {
		return s
	}
	if lang != DefaultLanguage {
		if s, ok := lookup(t.translations[DefaultLanguage], key); ok {
			return s
		}
	}
	return key
}

// Getf is Get plus {placeholder} substitution.
func (t *Translator) Getf(lang, key string, vars map[string]string) string {
	s := t.Get(lang, key)
	if len(vars) == 0 {
		return s
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

// TypeName localizes a measurement type name. System types carry i18n keys,
// custom types carry the user's raw name which has no translation.
func (t *Translator) TypeName(lang, name string) string {
	key := "measurement_types." + name
	if s := t.Get(lang, key); s != key {
		return s
	}
	human := strings.ReplaceAll(name, "_", " ")
	if human == "" {
		return name
	}
	return strings.ToUpper(human[:1]) + human[1:]
}

// Supported reports whether lang has a shipped translation file.
func (t *Translator) Supported(lang string) bool {
	_, ok := t.translations[lang]
	return ok
}

// LanguageName returns the display name used on language buttons.
func (t *Translator) LanguageName(lang string) string {
	switch lang {
	case "en":
		return "English"
	case "uk":
		return "Українська"
	default:
		return lang
	}
}

func lookup(tree map[string]any, key string) (string, bool) {
	var cur any = tree
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return "", false
		}
		cur, ok = m[part]
		if !ok {
			return "", false
		}
	}
	s, ok := cur.(string)
	return s, ok
}
