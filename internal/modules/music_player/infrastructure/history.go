package infrastructure

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/frostzzone/frost-music/internal/modules/music_player/application/ports"
	"github.com/frostzzone/frost-music/internal/modules/music_player/application/session"
	"github.com/frostzzone/frost-music/internal/modules/music_player/domain"
	_ "modernc.org/sqlite"
)

const defaultHistoryLimit = 10

// HistoryRecorder stores every started track in SQLite.
type HistoryRecorder struct {
	db *sql.DB
}

// NewHistoryRecorder opens (or creates) the history database at dbPath.
func NewHistoryRecorder(ctx context.Context, dbPath string) (*HistoryRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	r := &HistoryRecorder{db: db}
	if err := r.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *HistoryRecorder) ensureSchema(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS play_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			guild_id INTEGER NOT NULL,
			title TEXT NOT NULL,
			url TEXT NOT NULL,
			platform TEXT NOT NULL,
			requested_by TEXT NOT NULL,
			started_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_play_history_guild ON play_history(guild_id, started_at);`,
	}
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate history schema: %w", err)
		}
	}
	return nil
}

// Start records every songStart published by subscriber.
func (r *HistoryRecorder) Start(subscriber SessionEventSubscriber) {
	subscriber.Subscribe(domain.EventSongStart, func(event session.SessionEvent) {
		if event.Track == nil {
			return
		}
		if err := r.Record(context.Background(), event.Session.GuildID(), event.Track); err != nil {
			slog.Warn("failed to record play history",
				"guild", event.Session.GuildID(),
				"error", err,
			)
		}
	})
}

// Record stores one started request.
func (r *HistoryRecorder) Record(
	ctx context.Context,
	guildID snowflake.ID,
	req *domain.TrackRequest,
) error {
	track := req.Track()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO play_history (guild_id, title, url, platform, requested_by, started_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		int64(guildID),
		track.DisplayTitle(),
		track.URL,
		req.Platform().String(),
		req.RequestedBy(),
		req.RequestedAt().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

// Recent returns the guild's most recent entries, newest first.
func (r *HistoryRecorder) Recent(
	ctx context.Context,
	guildID snowflake.ID,
	limit int,
) ([]ports.HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT title, url, platform, requested_by, started_at FROM play_history
		 WHERE guild_id = ? ORDER BY started_at DESC, id DESC LIMIT ?`,
		int64(guildID), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []ports.HistoryEntry
	for rows.Next() {
		var (
			entry     ports.HistoryEntry
			startedAt int64
		)
		if err := rows.Scan(&entry.Title, &entry.URL, &entry.Platform, &entry.RequestedBy, &startedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entry.GuildID = guildID
		entry.StartedAt = time.UnixMilli(startedAt).UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return entries, nil
}

// Close closes the database.
func (r *HistoryRecorder) Close() error {
	return r.db.Close()
}

// Ensure HistoryRecorder implements ports.PlayHistory.
var _ ports.PlayHistory = (*HistoryRecorder)(nil)
