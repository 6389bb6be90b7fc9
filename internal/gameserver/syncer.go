package gameserver

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"

	"github.com/udisondev/questd/internal/game/quest"
	"github.com/udisondev/questd/internal/gameserver/serverpackets"
	"github.com/udisondev/questd/internal/lang"
)

const defaultLocalizeCacheSize = 4096

// localizeKey identifies one localized definition. Any catalog or
// translation reload bumps a version, so stale entries are never hit.
type localizeKey struct {
	catalogVersion uint64
	langVersion    uint64
	locale         string
	questID        string
}

// Syncer delivers quest sync packets to connected clients. It implements
// quest.Notifier: definitions are localized for the recipient at send time.
type Syncer struct {
	clients      *ClientManager
	catalog      *quest.Catalog
	translations *lang.Manager
	locales      *lang.LocaleStore
	cache        *lru.Cache

	compressThreshold int
}

// NewSyncer creates a syncer with a localized-definition cache of cacheSize entries.
func NewSyncer(clients *ClientManager, catalog *quest.Catalog, translations *lang.Manager, locales *lang.LocaleStore, cacheSize, compressThreshold int) (*Syncer, error) {
	if cacheSize <= 0 {
		cacheSize = defaultLocalizeCacheSize
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating localize cache: %w", err)
	}
	return &Syncer{
		clients:           clients,
		catalog:           catalog,
		translations:      translations,
		locales:           locales,
		cache:             cache,
		compressThreshold: compressThreshold,
	}, nil
}

// SendFull implements quest.Notifier.
func (s *Syncer) SendFull(playerID uuid.UUID, fs *quest.FullSync) {
	client := s.clients.GetClient(playerID)
	if client == nil {
		slog.Debug("full sync dropped, player not connected", "playerID", playerID)
		return
	}

	locale := s.locales.Get(playerID)
	defs := make([]serverpackets.SyncDefinition, len(fs.Definitions))
	for i, def := range fs.Definitions {
		defs[i] = s.localize(def, locale)
	}
	daily := fs.DailyIDs
	if daily == nil {
		daily = []string{}
	}

	s.send(client, &serverpackets.QuestSync{
		Type:              serverpackets.SyncFull,
		Definitions:       defs,
		Progress:          fs.Progress,
		DailyIDs:          daily,
		ActiveQuestID:     fs.ActiveQuestID,
		CompressThreshold: s.compressThreshold,
	})
}

// SendDelta implements quest.Notifier.
func (s *Syncer) SendDelta(playerID uuid.UUID, ds *quest.DeltaSync) {
	client := s.clients.GetClient(playerID)
	if client == nil {
		slog.Debug("delta sync dropped, player not connected", "playerID", playerID)
		return
	}

	pkt := &serverpackets.QuestSync{
		Type:          serverpackets.SyncDelta,
		Definitions:   []serverpackets.SyncDefinition{s.localize(ds.Definition, s.locales.Get(playerID))},
		Progress:      []*quest.Progress{ds.Progress},
		DailyIDs:      []string{},
		ActiveQuestID: ds.ActiveQuestID,
		Notification:  ds.Notification,
	}
	if ds.Notification != quest.NotifyNone {
		pkt.NotificationQuestID = ds.Definition.ID
	}
	s.send(client, pkt)
}

func (s *Syncer) send(client *GameClient, pkt *serverpackets.QuestSync) {
	if err := client.SendPacket(pkt); err != nil {
		slog.Warn("quest sync not delivered",
			"playerID", client.PlayerID(),
			"type", pkt.Type,
			"error", err)
	}
}

// localize resolves title and description for locale, falling back to the
// default locale and then to the raw key.
func (s *Syncer) localize(def *quest.Definition, locale string) serverpackets.SyncDefinition {
	key := localizeKey{
		catalogVersion: s.catalog.Version(),
		langVersion:    s.translations.Version(),
		locale:         locale,
		questID:        def.ID,
	}
	if v, ok := s.cache.Get(key); ok {
		sd := v.(serverpackets.SyncDefinition)
		if sd.Def == def {
			return sd
		}
	}

	sd := serverpackets.SyncDefinition{
		Def:         def,
		Title:       s.translations.Translate(locale, def.TitleKey),
		Description: s.translations.Translate(locale, def.DescriptionKey),
	}
	s.cache.Add(key, sd)
	return sd
}
