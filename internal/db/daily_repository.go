package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/udisondev/questd/internal/game/quest"
)

// DailyRepository stores the daily rotation of each world in PostgreSQL.
type DailyRepository struct {
	db *pgxpool.Pool
}

// NewDailyRepository creates a new DailyRepository.
func NewDailyRepository(db *pgxpool.Pool) *DailyRepository {
	return &DailyRepository{db: db}
}

// LoadDaily returns nil, nil if the world has no stored selection.
func (r *DailyRepository) LoadDaily(ctx context.Context, worldID string) (*quest.DailySelection, error) {
	var (
		sel quest.DailySelection
		ids []byte
	)
	err := r.db.QueryRow(ctx,
		`SELECT roll_date, quest_ids FROM daily_selection WHERE world_id = $1`,
		worldID,
	).Scan(&sel.Date, &ids)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storageErr(fmt.Sprintf("querying daily selection of world %q", worldID), err)
	}
	if err := json.Unmarshal(ids, &sel.QuestIDs); err != nil {
		return nil, storageErr("decoding daily quest ids", err)
	}
	return &sel, nil
}

// SaveDaily upserts the world's selection.
func (r *DailyRepository) SaveDaily(ctx context.Context, worldID string, sel *quest.DailySelection) error {
	ids, err := encodeIDs(sel.QuestIDs)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO daily_selection (world_id, roll_date, quest_ids, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (world_id) DO UPDATE
		 SET roll_date = EXCLUDED.roll_date, quest_ids = EXCLUDED.quest_ids, updated_at = now()`,
		worldID, sel.Date, ids,
	)
	if err != nil {
		return storageErr(fmt.Sprintf("saving daily selection of world %q", worldID), err)
	}
	return nil
}

func encodeIDs(ids []string) ([]byte, error) {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("encoding daily quest ids: %w", err)
	}
	return data, nil
}
