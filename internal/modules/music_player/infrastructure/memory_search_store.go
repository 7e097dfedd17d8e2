package infrastructure

import (
	"context"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/frostzzone/frost-music/internal/modules/music_player/application/ports"
	"github.com/frostzzone/frost-music/internal/modules/music_player/domain"
)

// MemorySearchStore is an in-memory implementation of ports.SearchStore.
type MemorySearchStore struct {
	mu   sync.RWMutex
	sets map[snowflake.ID]map[snowflake.ID]domain.SearchResultSet
}

// NewMemorySearchStore creates a new MemorySearchStore.
func NewMemorySearchStore() *MemorySearchStore {
	return &MemorySearchStore{
		sets: make(map[snowflake.ID]map[snowflake.ID]domain.SearchResultSet),
	}
}

// Get returns the set stored under key in the guild.
func (s *MemorySearchStore) Get(
	_ context.Context,
	guildID, key snowflake.ID,
) (domain.SearchResultSet, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.sets[guildID][key]
	return set, ok, nil
}

// Set replaces the set stored under key in the guild.
func (s *MemorySearchStore) Set(
	_ context.Context,
	guildID, key snowflake.ID,
	results domain.SearchResultSet,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	guild, ok := s.sets[guildID]
	if !ok {
		guild = make(map[snowflake.ID]domain.SearchResultSet)
		s.sets[guildID] = guild
	}
	guild[key] = results
	return nil
}

// Clear removes every set stored for the guild.
func (s *MemorySearchStore) Clear(_ context.Context, guildID snowflake.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sets, guildID)
	return nil
}

// Count returns the number of stored sets (for testing/monitoring).
func (s *MemorySearchStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, guild := range s.sets {
		total += len(guild)
	}
	return total
}

// Ensure MemorySearchStore implements ports.SearchStore.
var _ ports.SearchStore = (*MemorySearchStore)(nil)
