package gameserver

import (
	"fmt"
	"log/slog"

	"github.com/udisondev/questd/internal/game/quest"
	"github.com/udisondev/questd/internal/lang"
)

// Content reloads quest definitions and translations together.
type Content struct {
	catalog      *quest.Catalog
	source       quest.Source
	translations *lang.Manager
}

// NewContent creates a content loader.
func NewContent(catalog *quest.Catalog, source quest.Source, translations *lang.Manager) *Content {
	return &Content{catalog: catalog, source: source, translations: translations}
}

// Reload replaces the catalog snapshot and the translation table.
// A translation failure keeps the previous table and is reported as a problem.
func (c *Content) Reload() (int, []error, error) {
	report, err := c.catalog.Load(c.source)
	if err != nil {
		return 0, nil, fmt.Errorf("loading quests: %w", err)
	}
	problems := report.Errors
	if err := c.translations.Reload(); err != nil {
		problems = append(problems, fmt.Errorf("loading translations: %w", err))
	}

	slog.Info("content loaded",
		"quests", report.Loaded,
		"problems", len(problems),
		"locales", c.translations.Locales(),
		"catalogVersion", c.catalog.Version())
	return report.Loaded, problems, nil
}
