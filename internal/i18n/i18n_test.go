package i18n

import (
	"sort"
	"strings"
	"testing"
)

func newTranslator(t *testing.T) *Translator {
	t.Helper()
	tr, err := New()
	if err != nil {
		t.Fatalf("load translations: %v", err)
	}
	return tr
}

func TestGet_FallbackChain(t *testing.T) {
	tr := newTranslator(t)

	if got := tr.Get("en", "menu.back"); got == "menu.back" {
		t.Fatal("known key must resolve")
	}
	// Unsupported language falls back to English.
	if got, want := tr.Get("de", "menu.back"), tr.Get("en", "menu.back"); got != want {
		t.Fatalf("want english fallback %q, got %q", want, got)
	}
	// Missing keys surface as the key itself.
	if got := tr.Get("en", "no.such.key"); got != "no.such.key" {
		t.Fatalf("missing key must echo, got %q", got)
	}
}

func TestGetf_Placeholders(t *testing.T) {
	tr := newTranslator(t)

	got := tr.Getf("en", "start.welcome", map[string]string{"name": "Alice"})
	if !strings.Contains(got, "Alice") {
		t.Fatalf("placeholder not substituted: %q", got)
	}
	if strings.Contains(got, "{name}") {
		t.Fatalf("raw placeholder left in: %q", got)
	}
}

func TestTypeName(t *testing.T) {
	tr := newTranslator(t)

	if got := tr.TypeName("uk", "weight"); got != "Вага" {
		t.Fatalf("system type must localize, got %q", got)
	}
	// Custom type names have no translation and are prettified instead.
	if got := tr.TypeName("en", "left_forearm"); got != "Left forearm" {
		t.Fatalf("custom type fallback, got %q", got)
	}
}

func TestTranslations_KeyParity(t *testing.T) {
	tr := newTranslator(t)

	keys := make(map[string][]string, len(SupportedLanguages))
	for _, lang := range SupportedLanguages {
		var flat []string
		collectKeys(tr.translations[lang], "", &flat)
		sort.Strings(flat)
		keys[lang] = flat
	}

	base := keys[DefaultLanguage]
	for _, lang := range SupportedLanguages {
		if lang == DefaultLanguage {
			continue
		}
		if len(keys[lang]) != len(base) {
			t.Fatalf("%s has %d keys, %s has %d", lang, len(keys[lang]), DefaultLanguage, len(base))
		}
		for i := range base {
			if keys[lang][i] != base[i] {
				t.Fatalf("key mismatch between %s and %s: %q vs %q",
					DefaultLanguage, lang, base[i], keys[lang][i])
			}
		}
	}
}

func collectKeys(tree map[string]any, prefix string, out *[]string) {
	for k, v := range tree {
		full := k
		if prefix != "" {
			full = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			collectKeys(val, full, out)
		default:
			*out = append(*out, full)
		}
	}
}
