package i18n

import (
	"embed"
	"fmt"
	"strings"

	yaml "go.yaml.in/yaml/v3"
)

// Supported language codes.
const (
	English = "en"
	Russian = "ru"

	Default = English
)

var supported = []string{English, Russian}

//go:embed locales/*.yaml
var localesFS embed.FS

var translations = mustLoad()

func mustLoad() map[string]map[string]string {
	t, err := load()
	if err != nil {
		panic(err)
	}
	return t
}

func load() (map[string]map[string]string, error) {
	out := make(map[string]map[string]string, len(supported))
	for _, lang := range supported {
		data, err := localesFS.ReadFile("locales/" + lang + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", lang, err)
		}
		table := map[string]string{}
		if err := yaml.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", lang, err)
		}
		out[lang] = table
	}
	return out, nil
}

// Supported returns the supported language codes.
func Supported() []string {
	return append([]string(nil), supported...)
}

func IsSupported(lang string) bool {
	for _, l := range supported {
		if l == lang {
			return true
		}
	}
	return false
}

// Normalize returns lang if it is supported and Default otherwise.
func Normalize(lang string) string {
	if IsSupported(lang) {
		return lang
	}
	return Default
}

// Params are substituted into {name} placeholders.
type Params map[string]any

// T returns the translation of key. Missing keys fall back to the default
// language and then to the key itself.
func T(lang, key string, params ...Params) string {
	lang = Normalize(lang)

	text, ok := translations[lang][key]
	if !ok {
		text, ok = translations[Default][key]
	}
	if !ok {
		text = key
	}

	for _, p := range params {
		for name, value := range p {
			text = strings.ReplaceAll(text, "{"+name+"}", fmt.Sprint(value))
		}
	}
	return text
}

// Lines joins the translations of keys with newlines.
func Lines(lang string, keys ...string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		if k != "" {
			parts[i] = T(lang, k)
		}
	}
	return strings.Join(parts, "\n")
}
