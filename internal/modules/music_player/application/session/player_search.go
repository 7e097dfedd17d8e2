package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"
	"github.com/frostzzone/frost-music/internal/modules/music_player/domain"
)

// Search queries the provider of req.Platform and caches the results for the
// requester, replacing the previous set. With no requester the guild's own
// slot is used.
func (p *Player) Search(
	ctx context.Context,
	req domain.SearchRequest,
) (*domain.SearchResultSet, error) {
	if p.IsDestroyed() {
		return nil, domain.ErrDestroyed
	}

	provider, err := p.provider(req.Platform, "search")
	if err != nil {
		p.reportError(err)
		return nil, err
	}

	entries, err := provider.Search(ctx, req.Query, req.Limit)
	if err != nil {
		perr := &domain.ProviderError{Platform: req.Platform, Op: "search", Err: err}
		p.reportError(perr)
		return nil, perr
	}

	if entries == nil {
		entries = []domain.TrackDescriptor{}
	}
	if req.Limit > 0 && len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}
	for i := range entries {
		if entries[i].Platform == "" {
			entries[i].Platform = req.Platform
		}
	}

	results := domain.SearchResultSet{
		Query:     req.Query,
		Platform:  req.Platform,
		Entries:   entries,
		CreatedAt: p.clock(),
	}
	if err := p.searches.Set(ctx, p.guildID, p.searchKey(req.RequesterID), results); err != nil {
		slog.Warn("failed to store search results", "guild", p.guildID, "error", err)
	}

	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return nil, domain.ErrDestroyed
	}
	request := req
	p.emitLocked(domain.Event{
		Name:    domain.EventSearchResult,
		Results: &results,
		Search:  &request,
	})
	p.mu.Unlock()
	p.flush()

	return &results, nil
}

// AddFromSearch plays or queues entry index of the requester's last search.
// It falls back to the guild's own search when the requester has none.
func (p *Player) AddFromSearch(
	ctx context.Context,
	index int,
	requesterID snowflake.ID,
) (*domain.TrackRequest, error) {
	if p.IsDestroyed() {
		return nil, domain.ErrDestroyed
	}

	results, ok, err := p.lookupResults(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to load search results: %w", err)
	}
	if !ok {
		return nil, domain.ErrNoSearchResults
	}

	track, ok := results.At(index)
	if !ok {
		return nil, fmt.Errorf("%w: %d is not between 0 and %d", domain.ErrInvalidIndex, index, results.Len()-1)
	}

	platform := track.Platform
	if platform == "" {
		platform = results.Platform
	}
	return p.enqueue(track, platform, requesterID)
}

func (p *Player) lookupResults(
	ctx context.Context,
	requesterID snowflake.ID,
) (domain.SearchResultSet, bool, error) {
	if requesterID != 0 {
		results, ok, err := p.searches.Get(ctx, p.guildID, requesterID)
		if err != nil || ok {
			return results, ok, err
		}
	}
	return p.searches.Get(ctx, p.guildID, p.guildID)
}

func (p *Player) searchKey(requesterID snowflake.ID) snowflake.ID {
	if requesterID == 0 {
		return p.guildID
	}
	return requesterID
}
