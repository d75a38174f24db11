package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

//go:embed locales/*.json
var locales embed.FS

const DefaultLang = "en"

// Catalog holds the translated UI strings, keyed by language then message.
type Catalog struct {
	translations map[string]map[string]string
}

// Load reads the embedded catalogues for langs.
func Load(langs ...string) (*Catalog, error) {
	if len(langs) == 0 {
		langs = []string{"en", "fr"}
	}
	c := &Catalog{translations: make(map[string]map[string]string)}
	for _, lang := range langs {
		data, err := locales.ReadFile(fmt.Sprintf("locales/%s.json", lang))
		if err != nil {
			return nil, err
		}
		var t map[string]string
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("locale %s: %w", lang, err)
		}
		c.translations[lang] = t
	}
	return c, nil
}

func (c *Catalog) T(lang, key string) string {
	if t, ok := c.translations[lang]; ok {
		if val, ok := t[key]; ok {
			return val
		}
	}
	// Fallback to English
	if lang != DefaultLang {
		return c.T(DefaultLang, key)
	}
	return key
}

func (c *Catalog) DetectLanguage(r *http.Request) string {
	// Example: fr-CH, fr;q=0.9, en;q=0.8, de;q=0.7, *;q=0.5
	accept := r.Header.Get("Accept-Language")
	for _, part := range strings.Split(accept, ",") {
		lang := strings.TrimSpace(strings.Split(part, ";")[0])
		if len(lang) >= 2 {
			lang = strings.ToLower(lang[:2]) // e.g., "en-US" -> "en"
			if _, ok := c.translations[lang]; ok {
				return lang
			}
		}
	}
	return DefaultLang
}
