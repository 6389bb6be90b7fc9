package quest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Record is one independently parseable definition record.
// Data is always JSON; Err is set when the record could not even be read.
type Record struct {
	Path  string
	Data  []byte
	Daily bool // loaded from the daily pool; forces Type = daily
	Err   error
}

// Source enumerates definition records.
// A returned error means the source could not be listed at all.
type Source interface {
	Records() ([]Record, error)
}

// DirSource reads quest records from <Root>/quests and <Root>/daily.
// Each .json, .yaml or .yml file holds exactly one definition.
type DirSource struct {
	Root string
}

// QuestsDir returns the directory of regular quests.
func (s DirSource) QuestsDir() string { return filepath.Join(s.Root, "quests") }

// DailyDir returns the directory of daily rotation candidates.
func (s DirSource) DailyDir() string { return filepath.Join(s.Root, "daily") }

// Records implements Source.
func (s DirSource) Records() ([]Record, error) {
	var records []Record
	for _, dir := range []struct {
		path  string
		daily bool
	}{
		{s.QuestsDir(), false},
		{s.DailyDir(), true},
	} {
		if err := os.MkdirAll(dir.path, 0o755); err != nil {
			return nil, fmt.Errorf("creating quest directory %s: %w", dir.path, err)
		}
		recs, err := readDir(dir.path, dir.daily)
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}
	return records, nil
}

func readDir(dir string, daily bool) ([]Record, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing quest directory %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	records := make([]Record, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		rec := Record{Path: path, Daily: daily}
		data, err := os.ReadFile(path)
		if err != nil {
			rec.Err = fmt.Errorf("reading file: %w", err)
			records = append(records, rec)
			continue
		}
		if ext := strings.ToLower(filepath.Ext(name)); ext == ".yaml" || ext == ".yml" {
			data, err = yamlToJSON(data)
			if err != nil {
				rec.Err = err
				records = append(records, rec)
				continue
			}
		}
		rec.Data = data
		records = append(records, rec)
	}
	return records, nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("converting yaml to json: %w", err)
	}
	return out, nil
}

type definitionRecord struct {
	ID             string            `json:"id"`
	TitleKey       string            `json:"title_key"`
	DescriptionKey string            `json:"description_key"`
	Category       string            `json:"category"`
	Type           string            `json:"type"`
	Repeatable     bool              `json:"repeatable"`
	Prerequisites  []string          `json:"prerequisites"`
	Objectives     []objectiveRecord `json:"objectives"`
	Rewards        []rewardRecord    `json:"rewards"`
}

type objectiveRecord struct {
	ID       string           `json:"id"`
	Logic    string           `json:"logic"`
	Criteria []criteriaRecord `json:"criteria"`
}

type criteriaRecord struct {
	Type      string   `json:"type"`
	Item      string   `json:"item"`
	Block     string   `json:"block"`
	Entity    string   `json:"entity"`
	Count     *int     `json:"count"`
	Dimension string   `json:"dimension"`
	Biome     string   `json:"biome"`
	YMin      *float64 `json:"y_min"`
	YMax      *float64 `json:"y_max"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Z         float64  `json:"z"`
	Radius    float64  `json:"radius"`
}

type rewardRecord struct {
	Type        string `json:"type"`
	Item        string `json:"item"`
	Count       *int   `json:"count"`
	Amount      int    `json:"amount"`
	Effect      string `json:"effect"`
	Duration    int    `json:"duration"`
	Amplifier   int    `json:"amplifier"`
	Command     string `json:"command"`
	ID          string `json:"id"`
	Advancement string `json:"advancement"`
}

// ParseDefinition validates and decodes a single record.
// Every failure is reported as a *ParseError.
func ParseDefinition(rec Record) (*Definition, error) {
	def, err := parseDefinition(rec)
	if err != nil {
		return nil, &ParseError{Path: rec.Path, Err: err}
	}
	return def, nil
}

func parseDefinition(rec Record) (*Definition, error) {
	if rec.Err != nil {
		return nil, rec.Err
	}
	if err := validateRecord(rec.Data); err != nil {
		return nil, err
	}
	var raw definitionRecord
	if err := json.Unmarshal(rec.Data, &raw); err != nil {
		return nil, fmt.Errorf("decoding definition: %w", err)
	}

	def := &Definition{
		ID:             raw.ID,
		TitleKey:       raw.TitleKey,
		DescriptionKey: raw.DescriptionKey,
		Category:       ParseCategory(raw.Category),
		Type:           raw.Type,
		Repeatable:     raw.Repeatable,
		Prerequisites:  raw.Prerequisites,
		Objectives:     make([]Objective, 0, len(raw.Objectives)),
		Rewards:        make([]Reward, 0, len(raw.Rewards)),
	}
	if def.Type == "" {
		def.Type = TypeNormal
	}
	if rec.Daily {
		def.Type = TypeDaily
	}

	seen := make(map[string]struct{}, len(raw.Objectives))
	for i, ro := range raw.Objectives {
		obj, err := ro.toObjective()
		if err != nil {
			return nil, fmt.Errorf("objective %d: %w", i, err)
		}
		if _, dup := seen[obj.ID]; dup {
			return nil, fmt.Errorf("objective %d: duplicate id %q", i, obj.ID)
		}
		seen[obj.ID] = struct{}{}
		def.Objectives = append(def.Objectives, obj)
	}
	for i, rr := range raw.Rewards {
		r, err := rr.toReward()
		if err != nil {
			return nil, fmt.Errorf("reward %d: %w", i, err)
		}
		def.Rewards = append(def.Rewards, r)
	}
	return def, nil
}

func (ro objectiveRecord) toObjective() (Objective, error) {
	obj := Objective{
		ID:       ro.ID,
		Logic:    LogicAnd,
		Criteria: make([]Criteria, 0, len(ro.Criteria)),
	}
	if obj.ID == "" {
		obj.ID = "objective"
	}
	if strings.EqualFold(ro.Logic, "or") {
		obj.Logic = LogicOr
	}
	for i, rc := range ro.Criteria {
		t, ok := ParseCriteriaType(rc.Type)
		if !ok {
			return obj, fmt.Errorf("criteria %d: unknown type %q", i, rc.Type)
		}
		c := Criteria{
			Type:      t,
			Item:      rc.Item,
			Block:     rc.Block,
			Entity:    rc.Entity,
			Count:     1,
			Dimension: rc.Dimension,
			Biome:     rc.Biome,
			YMin:      rc.YMin,
			YMax:      rc.YMax,
			X:         rc.X,
			Y:         rc.Y,
			Z:         rc.Z,
			Radius:    rc.Radius,
		}
		if rc.Count != nil {
			c.Count = max(1, *rc.Count)
		}
		obj.Criteria = append(obj.Criteria, c)
	}
	return obj, nil
}

func (rr rewardRecord) toReward() (Reward, error) {
	t, ok := ParseRewardType(rr.Type)
	if !ok {
		return Reward{}, fmt.Errorf("unknown reward type %q", rr.Type)
	}
	r := Reward{
		Type:        t,
		Item:        rr.Item,
		Count:       1,
		Amount:      rr.Amount,
		Effect:      rr.Effect,
		Duration:    rr.Duration,
		Amplifier:   rr.Amplifier,
		Command:     rr.Command,
		Advancement: rr.Advancement,
	}
	if rr.Count != nil {
		r.Count = *rr.Count
	}
	if r.Advancement == "" {
		r.Advancement = rr.ID
	}
	return r, nil
}

// Lint parses every record of src without touching any catalog and returns
// the parse errors found.
func Lint(src Source) ([]error, error) {
	records, err := src.Records()
	if err != nil {
		return nil, err
	}
	var errs []error
	ids := make(map[string]string, len(records))
	for _, rec := range records {
		def, err := ParseDefinition(rec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if prev, dup := ids[def.ID]; dup {
			slog.Warn("duplicate quest id", "questID", def.ID, "first", prev, "second", rec.Path)
		}
		ids[def.ID] = rec.Path
	}
	for _, rec := range records {
		def, err := ParseDefinition(rec)
		if err != nil {
			continue
		}
		for _, pre := range def.Prerequisites {
			if _, ok := ids[pre]; !ok {
				errs = append(errs, fmt.Errorf("%s: prerequisite %q: %w", rec.Path, pre, ErrMissingReference))
			}
		}
	}
	return errs, nil
}
