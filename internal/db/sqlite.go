package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/udisondev/questd/internal/db/migrations"
	"github.com/udisondev/questd/internal/game/quest"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps progress and daily selections in an embedded SQLite file.
// It implements both quest.ProgressRepository and quest.DailyRepository.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and migrates it.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("empty sqlite path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating sqlite directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := migrate(ctx, db, "sqlite3", migrations.Dir("sqlite")); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func initPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("applying %q: %w", p, err)
		}
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// LoadPlayer implements quest.ProgressRepository.
func (s *SQLiteStore) LoadPlayer(ctx context.Context, playerID uuid.UUID) (*quest.PlayerSnapshot, error) {
	id := playerID.String()
	rows, err := s.db.QueryContext(ctx,
		`SELECT quest_id, completed, rewards_granted, completed_at, objectives
		 FROM quest_progress WHERE player_id = ? ORDER BY quest_id`, id)
	if err != nil {
		return nil, storageErr(fmt.Sprintf("querying progress for player %s", id), err)
	}
	defer rows.Close()

	snap := &quest.PlayerSnapshot{PlayerID: playerID}
	for rows.Next() {
		var (
			questID     string
			completedAt sql.NullInt64
			objectives  string
		)
		p := quest.NewProgress("")
		if err := rows.Scan(&questID, &p.Completed, &p.RewardsGranted, &completedAt, &objectives); err != nil {
			return nil, storageErr("scanning progress row", err)
		}
		p.QuestID = questID
		if completedAt.Valid {
			p.CompletedAt = time.UnixMilli(completedAt.Int64).UTC()
		}
		if err := decodeObjectives([]byte(objectives), p); err != nil {
			return nil, storageErr("loading progress", err)
		}
		snap.Quests = append(snap.Quests, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating progress rows", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT quest_id FROM quest_active WHERE player_id = ?`, id,
	).Scan(&snap.ActiveQuestID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, storageErr(fmt.Sprintf("querying active quest for player %s", id), err)
	}
	return snap, nil
}

// SavePlayer implements quest.ProgressRepository.
func (s *SQLiteStore) SavePlayer(ctx context.Context, snap *quest.PlayerSnapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin transaction", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Error("rollback failed", "playerID", snap.PlayerID, "error", err)
		}
	}()

	if err := savePlayerTx(ctx, tx, snap); err != nil {
		return storageErr("saving player", err)
	}
	if err := tx.Commit(); err != nil {
		return storageErr("commit transaction", err)
	}
	return nil
}

func savePlayerTx(ctx context.Context, tx *sql.Tx, snap *quest.PlayerSnapshot) error {
	id := snap.PlayerID.String()
	if _, err := tx.ExecContext(ctx, `DELETE FROM quest_progress WHERE player_id = ?`, id); err != nil {
		return fmt.Errorf("deleting progress for player %s: %w", id, err)
	}

	if len(snap.Quests) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO quest_progress (player_id, quest_id, completed, rewards_granted, completed_at, objectives)
			 VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing progress insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range snap.Quests {
			objectives, err := encodeObjectives(p)
			if err != nil {
				return err
			}
			var completedAt sql.NullInt64
			if !p.CompletedAt.IsZero() {
				completedAt = sql.NullInt64{Int64: p.CompletedAt.UnixMilli(), Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, id, p.QuestID, p.Completed, p.RewardsGranted, completedAt, string(objectives)); err != nil {
				return fmt.Errorf("inserting progress %q for player %s: %w", p.QuestID, id, err)
			}
		}
	}

	if snap.ActiveQuestID == "" {
		if _, err := tx.ExecContext(ctx, `DELETE FROM quest_active WHERE player_id = ?`, id); err != nil {
			return fmt.Errorf("clearing active quest for player %s: %w", id, err)
		}
		return nil
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO quest_active (player_id, quest_id) VALUES (?, ?)
		 ON CONFLICT (player_id) DO UPDATE SET quest_id = excluded.quest_id`,
		id, snap.ActiveQuestID)
	if err != nil {
		return fmt.Errorf("storing active quest for player %s: %w", id, err)
	}
	return nil
}

// LoadDaily implements quest.DailyRepository.
func (s *SQLiteStore) LoadDaily(ctx context.Context, worldID string) (*quest.DailySelection, error) {
	var (
		sel quest.DailySelection
		ids string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT roll_date, quest_ids FROM daily_selection WHERE world_id = ?`, worldID,
	).Scan(&sel.Date, &ids)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storageErr(fmt.Sprintf("querying daily selection of world %q", worldID), err)
	}
	if err := json.Unmarshal([]byte(ids), &sel.QuestIDs); err != nil {
		return nil, storageErr("decoding daily quest ids", err)
	}
	return &sel, nil
}

// SaveDaily implements quest.DailyRepository.
func (s *SQLiteStore) SaveDaily(ctx context.Context, worldID string, sel *quest.DailySelection) error {
	ids, err := encodeIDs(sel.QuestIDs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO daily_selection (world_id, roll_date, quest_ids, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (world_id) DO UPDATE
		 SET roll_date = excluded.roll_date, quest_ids = excluded.quest_ids, updated_at = excluded.updated_at`,
		worldID, sel.Date, string(ids), time.Now().UnixMilli())
	if err != nil {
		return storageErr(fmt.Sprintf("saving daily selection of world %q", worldID), err)
	}
	return nil
}
