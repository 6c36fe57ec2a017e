package i18n

import (
	"embed"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed messages/*.yaml
var messageFiles embed.FS

var catalog = mustLoadCatalog()

func mustLoadCatalog() map[string]map[string]string {
	out := make(map[string]map[string]string, len(Supported))
	for _, locale := range Supported {
		raw, err := messageFiles.ReadFile(path.Join("messages", locale+".yaml"))
		if err != nil {
			panic(fmt.Sprintf("i18n: read %s catalog: %v", locale, err))
		}
		var tree map[string]any
		if err := yaml.Unmarshal(raw, &tree); err != nil {
			panic(fmt.Sprintf("i18n: parse %s catalog: %v", locale, err))
		}
		flat := make(map[string]string)
		flatten("", tree, flat)
		out[locale] = flat
	}
	return out
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for key, value := range node {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]any:
			flatten(full, v, out)
		case string:
			out[full] = v
		default:
			out[full] = fmt.Sprint(v)
		}
	}
}

// T returns the message for key in locale, falling back to the default
// locale and finally to the key itself.
func T(locale, key string) string {
	if msg, ok := catalog[locale][key]; ok {
		return msg
	}
	if msg, ok := catalog[Default][key]; ok {
		return msg
	}
	return key
}

// Section returns every message under prefix with the prefix stripped,
// e.g. Section("fr", "product") yields {"price": "Prix", "status.sold": "Vendu", ...}.
func Section(locale, prefix string) map[string]string {
	source := catalog[locale]
	if source == nil {
		source = catalog[Default]
	}
	out := make(map[string]string)
	for key, msg := range source {
		if rest, ok := strings.CutPrefix(key, prefix+"."); ok {
			out[rest] = msg
		}
	}
	return out
}
