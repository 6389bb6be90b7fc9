package lang

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// LocaleStore remembers the locale each connected player reported.
// Thread-safe for concurrent access.
type LocaleStore struct {
	mu       sync.RWMutex
	locales  map[uuid.UUID]string
	fallback string
}

// NewLocaleStore creates a store answering fallback for unknown players.
func NewLocaleStore(fallback string) *LocaleStore {
	if fallback == "" {
		fallback = DefaultLocale
	}
	return &LocaleStore{
		locales:  make(map[uuid.UUID]string, 256),
		fallback: NormalizeLocale(fallback),
	}
}

// Set stores the player's locale and reports whether it changed.
// A blank locale stores the fallback.
func (s *LocaleStore) Set(playerID uuid.UUID, locale string) bool {
	if strings.TrimSpace(locale) == "" {
		locale = s.fallback
	} else {
		locale = NormalizeLocale(locale)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.locales[playerID]
	s.locales[playerID] = locale
	return !ok || prev != locale
}

// Get returns the player's locale or the fallback.
func (s *LocaleStore) Get(playerID uuid.UUID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if l, ok := s.locales[playerID]; ok {
		return l
	}
	return s.fallback
}

// Clear forgets the player.
func (s *LocaleStore) Clear(playerID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locales, playerID)
}
