package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/udisondev/questd/internal/game/quest"
)

type memSource struct {
	records []quest.Record
	err     error
}

func (s memSource) Records() ([]quest.Record, error) { return s.records, s.err }

func TestLint(t *testing.T) {
	good := quest.Record{Path: "quests/a.json", Data: []byte(`{"id": "a", "title_key": "t", "description_key": "d"}`)}
	orphan := quest.Record{Path: "quests/b.json", Data: []byte(`{"id": "b", "title_key": "t", "description_key": "d", "prerequisites": ["zzz"]}`)}
	broken := quest.Record{Path: "quests/c.json", Data: []byte(`{"id": 3}`)}

	tests := []struct {
		name     string
		src      memSource
		wantCode int
		wantOut  string
	}{
		{"clean", memSource{records: []quest.Record{good}}, 0, "1 records, 0 problems"},
		{"problems", memSource{records: []quest.Record{good, orphan, broken}}, 1, "3 records, 2 problems"},
		{"unreadable", memSource{err: errors.New("permission denied")}, 2, "error: permission denied"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			assert.Equal(t, tt.wantCode, lint(&out, tt.src))
			assert.Contains(t, out.String(), tt.wantOut)
		})
	}
}

func TestLint_ShippedQuests(t *testing.T) {
	var out bytes.Buffer
	code := lint(&out, quest.DirSource{Root: "../../config/quests"})
	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "7 records, 0 problems")
}
