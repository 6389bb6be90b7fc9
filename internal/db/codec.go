package db

import (
	"encoding/json"
	"fmt"

	"github.com/udisondev/questd/internal/game/quest"
)

// objectiveRow is the stored form of one objective's progress.
type objectiveRow struct {
	ID        string `json:"id"`
	Counts    []int  `json:"counts"`
	Completed bool   `json:"completed"`
}

func encodeObjectives(p *quest.Progress) ([]byte, error) {
	rows := make([]objectiveRow, 0, len(p.Objectives))
	for _, id := range p.ObjectiveIDs() {
		op := p.Objectives[id]
		counts := op.Counts
		if counts == nil {
			counts = []int{}
		}
		rows = append(rows, objectiveRow{ID: op.ID, Counts: counts, Completed: op.Completed})
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encoding objectives of %q: %w", p.QuestID, err)
	}
	return data, nil
}

func decodeObjectives(data []byte, p *quest.Progress) error {
	if len(data) == 0 {
		return nil
	}
	var rows []objectiveRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("decoding objectives of %q: %w", p.QuestID, err)
	}
	for _, r := range rows {
		p.Objectives[r.ID] = &quest.ObjectiveProgress{
			ID:        r.ID,
			Counts:    r.Counts,
			Completed: r.Completed,
		}
	}
	return nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", quest.ErrStorageUnavailable, op, err)
}
