package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/udisondev/questd/internal/game/quest"
)

// ProgressRepository stores player quest progress in PostgreSQL.
type ProgressRepository struct {
	db *pgxpool.Pool
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(db *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// LoadPlayer loads every quest record and the active marker of a player.
func (r *ProgressRepository) LoadPlayer(ctx context.Context, playerID uuid.UUID) (*quest.PlayerSnapshot, error) {
	query := `
		SELECT quest_id, completed, rewards_granted, completed_at, objectives
		FROM quest_progress
		WHERE player_id = $1
		ORDER BY quest_id
	`

	rows, err := r.db.Query(ctx, query, playerID.String())
	if err != nil {
		return nil, storageErr(fmt.Sprintf("querying progress for player %s", playerID), err)
	}
	defer rows.Close()

	snap := &quest.PlayerSnapshot{PlayerID: playerID}
	for rows.Next() {
		var (
			questID     string
			completedAt *time.Time
			objectives  []byte
		)
		p := quest.NewProgress("")
		if err := rows.Scan(&questID, &p.Completed, &p.RewardsGranted, &completedAt, &objectives); err != nil {
			return nil, storageErr("scanning progress row", err)
		}
		p.QuestID = questID
		if completedAt != nil {
			p.CompletedAt = completedAt.UTC()
		}
		if err := decodeObjectives(objectives, p); err != nil {
			return nil, storageErr("loading progress", err)
		}
		snap.Quests = append(snap.Quests, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating progress rows", err)
	}

	err = r.db.QueryRow(ctx,
		`SELECT quest_id FROM quest_active WHERE player_id = $1`,
		playerID.String(),
	).Scan(&snap.ActiveQuestID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, storageErr(fmt.Sprintf("querying active quest for player %s", playerID), err)
	}

	return snap, nil
}

// SavePlayer replaces all stored state of the player in a single transaction.
func (r *ProgressRepository) SavePlayer(ctx context.Context, snap *quest.PlayerSnapshot) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return storageErr("begin transaction", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("rollback failed", "playerID", snap.PlayerID, "error", err)
		}
	}()

	if err := r.SavePlayerTx(ctx, tx, snap); err != nil {
		return storageErr("saving player", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return storageErr("commit transaction", err)
	}
	return nil
}

// SavePlayerTx saves player state within an existing transaction.
func (r *ProgressRepository) SavePlayerTx(ctx context.Context, tx pgx.Tx, snap *quest.PlayerSnapshot) error {
	id := snap.PlayerID.String()

	if _, err := tx.Exec(ctx, `DELETE FROM quest_progress WHERE player_id = $1`, id); err != nil {
		return fmt.Errorf("deleting progress for player %s: %w", id, err)
	}

	if len(snap.Quests) > 0 {
		rows := make([][]any, 0, len(snap.Quests))
		for _, p := range snap.Quests {
			objectives, err := encodeObjectives(p)
			if err != nil {
				return err
			}
			var completedAt *time.Time
			if !p.CompletedAt.IsZero() {
				t := p.CompletedAt.UTC()
				completedAt = &t
			}
			rows = append(rows, []any{id, p.QuestID, p.Completed, p.RewardsGranted, completedAt, objectives})
		}

		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"quest_progress"},
			[]string{"player_id", "quest_id", "completed", "rewards_granted", "completed_at", "objectives"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("inserting progress for player %s: %w", id, err)
		}
	}

	if snap.ActiveQuestID == "" {
		if _, err := tx.Exec(ctx, `DELETE FROM quest_active WHERE player_id = $1`, id); err != nil {
			return fmt.Errorf("clearing active quest for player %s: %w", id, err)
		}
	} else {
		_, err := tx.Exec(ctx,
			`INSERT INTO quest_active (player_id, quest_id) VALUES ($1, $2)
			 ON CONFLICT (player_id) DO UPDATE SET quest_id = EXCLUDED.quest_id`,
			id, snap.ActiveQuestID,
		)
		if err != nil {
			return fmt.Errorf("storing active quest for player %s: %w", id, err)
		}
	}

	slog.Debug("saved player quests",
		"playerID", snap.PlayerID,
		"questCount", len(snap.Quests))

	return nil
}
