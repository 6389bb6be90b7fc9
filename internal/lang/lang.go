// Package lang loads server-side translation files and resolves quest
// strings for a player's locale.
package lang

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/pelletier/go-toml/v2"
)

// DefaultLocale is used when a player has not reported a locale.
const DefaultLocale = "en_us"

type table struct {
	entries map[string]map[string]string // locale → key → text
	version uint64
}

// Manager holds the translations of every loaded locale.
// Reload swaps the whole table; Translate never blocks.
type Manager struct {
	dir           string
	defaultLocale string
	current       atomic.Pointer[table]
	version       atomic.Uint64
}

// NewManager creates a manager reading <dir>/<locale>.json and <locale>.toml.
// An empty defaultLocale means DefaultLocale.
func NewManager(dir, defaultLocale string) *Manager {
	m := &Manager{
		dir:           dir,
		defaultLocale: DefaultLocale,
	}
	if defaultLocale != "" {
		m.defaultLocale = NormalizeLocale(defaultLocale)
	}
	m.current.Store(&table{entries: map[string]map[string]string{}})
	return m
}

// DefaultLocale returns the fallback locale.
func (m *Manager) DefaultLocale() string { return m.defaultLocale }

// Reload reads every translation file. Broken files are logged and loaded
// as empty locales; only a failure to list the directory is returned.
func (m *Manager) Reload() error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("creating lang directory: %w", err)
	}
	files, err := os.ReadDir(m.dir)
	if err != nil {
		return fmt.Errorf("listing lang directory: %w", err)
	}

	entries := make(map[string]map[string]string, len(files))
	totalKeys := 0
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		name := f.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".json" && ext != ".toml" {
			continue
		}
		locale := NormalizeLocale(strings.TrimSuffix(name, filepath.Ext(name)))
		path := filepath.Join(m.dir, name)

		keys, err := readFile(path, ext)
		if err != nil {
			slog.Error("failed to load lang file", "path", path, "error", err)
		}
		if entries[locale] == nil {
			entries[locale] = make(map[string]string, len(keys))
		}
		for k, v := range keys {
			entries[locale][k] = v
		}
		totalKeys += len(keys)
	}

	m.current.Store(&table{entries: entries, version: m.version.Add(1)})
	slog.Info("translations loaded",
		"locales", len(entries),
		"keys", totalKeys)
	return nil
}

func readFile(path, ext string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	switch ext {
	case ".toml":
		err = toml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(doc))
	flatten("", doc, out)
	return out, nil
}

// flatten turns nested tables into dotted keys: {"quest": {"a": "x"}} → "quest.a".
func flatten(prefix string, doc map[string]any, out map[string]string) {
	for k, v := range doc {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case string:
			out[key] = val
		case map[string]any:
			flatten(key, val, out)
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// Translate resolves key for locale, falling back to the default locale and
// finally to the key itself.
func (m *Manager) Translate(locale, key string) string {
	if key == "" {
		return ""
	}
	t := m.current.Load()
	locale = NormalizeLocale(locale)
	if v, ok := t.entries[locale][key]; ok {
		return v
	}
	if locale != m.defaultLocale {
		if v, ok := t.entries[m.defaultLocale][key]; ok {
			return v
		}
	}
	return key
}

// Locales returns the loaded locales in ascending order.
func (m *Manager) Locales() []string {
	t := m.current.Load()
	out := make([]string, 0, len(t.entries))
	for l := range t.entries {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Version increases on every Reload.
func (m *Manager) Version() uint64 { return m.current.Load().version }

// NormalizeLocale lowercases a locale tag and maps "en-US" to "en_us".
// Empty input yields DefaultLocale.
func NormalizeLocale(locale string) string {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return DefaultLocale
	}
	return strings.ReplaceAll(strings.ToLower(locale), "-", "_")
}
