// Package state persists the tracked runtime state of each army: per-
// model hit points, per-unit round flags, and point pools. The engine
// produces armies at full health; everything that happens on the table
// afterwards lives here.
package state

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Majawat/convergence-protocol2-sub000/internal/army"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS model_hp (
  army_id    TEXT NOT NULL,
  unit_id    TEXT NOT NULL,
  model_id   TEXT NOT NULL,
  current_hp INTEGER NOT NULL,
  max_hp     INTEGER NOT NULL,
  PRIMARY KEY (army_id, unit_id, model_id)
);
CREATE TABLE IF NOT EXISTS unit_state (
  army_id      TEXT NOT NULL,
  unit_id      TEXT NOT NULL,
  shaken       INTEGER NOT NULL DEFAULT 0,
  fatigued     INTEGER NOT NULL DEFAULT 0,
  activated    INTEGER NOT NULL DEFAULT 0,
  spell_tokens INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (army_id, unit_id)
);
CREATE TABLE IF NOT EXISTS army_points (
  army_id         TEXT PRIMARY KEY,
  command_points  INTEGER NOT NULL DEFAULT 0,
  underdog_points INTEGER NOT NULL DEFAULT 0
);`

// Store persists tracker state in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens the store at path and creates the schema if needed.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ModelHP is one model's tracked hit-point pair.
type ModelHP struct {
	Current int `json:"currentHp"`
	Max     int `json:"maxHp"`
}

// UnitState carries a unit's per-round flags and spell tokens.
type UnitState struct {
	Shaken      bool `json:"shaken"`
	Fatigued    bool `json:"fatigued"`
	Activated   bool `json:"activated"`
	SpellTokens int  `json:"spellTokens"`
}

// ArmyState is the full tracked state of one army.
type ArmyState struct {
	Models         map[string]map[string]ModelHP `json:"models"` // unitId -> modelId -> hp
	Units          map[string]UnitState          `json:"units"`
	CommandPoints  int                           `json:"commandPoints"`
	UnderdogPoints int                           `json:"underdogPoints"`
}

// SeedArmy inserts a hit-point row for every model in a freshly
// normalized army. Existing rows survive so re-fetching a list never
// resets wounds already tracked.
func (s *Store) SeedArmy(ctx context.Context, armyID string, a *army.NormalizedArmy) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, u := range a.Units {
		for _, m := range u.Models {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO model_hp (army_id, unit_id, model_id, current_hp, max_hp)
				 VALUES (?, ?, ?, ?, ?)
				 ON CONFLICT (army_id, unit_id, model_id) DO UPDATE SET max_hp = excluded.max_hp`,
				armyID, u.SelectionID, m.ID, m.CurrentHP, m.MaxHP); err != nil {
				return fmt.Errorf("seed model %s/%s: %w", u.SelectionID, m.ID, err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO unit_state (army_id, unit_id) VALUES (?, ?)`,
			armyID, u.SelectionID); err != nil {
			return fmt.Errorf("seed unit %s: %w", u.SelectionID, err)
		}
	}
	return tx.Commit()
}

// SetModelHP stores a model's current hit points, clamped to [0, max].
// It returns the stored value.
func (s *Store) SetModelHP(ctx context.Context, armyID, unitID, modelID string, hp int) (int, error) {
	var max int
	err := s.db.QueryRowContext(ctx,
		`SELECT max_hp FROM model_hp WHERE army_id = ? AND unit_id = ? AND model_id = ?`,
		armyID, unitID, modelID).Scan(&max)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("unknown model %s/%s/%s", armyID, unitID, modelID)
	}
	if err != nil {
		return 0, fmt.Errorf("lookup model hp: %w", err)
	}
	if hp < 0 {
		hp = 0
	}
	if hp > max {
		hp = max
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE model_hp SET current_hp = ? WHERE army_id = ? AND unit_id = ? AND model_id = ?`,
		hp, armyID, unitID, modelID); err != nil {
		return 0, fmt.Errorf("update model hp: %w", err)
	}
	return hp, nil
}

// SetUnitState replaces a unit's flags and token count.
func (s *Store) SetUnitState(ctx context.Context, armyID, unitID string, us UnitState) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO unit_state (army_id, unit_id, shaken, fatigued, activated, spell_tokens)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (army_id, unit_id) DO UPDATE SET
		   shaken = excluded.shaken, fatigued = excluded.fatigued,
		   activated = excluded.activated, spell_tokens = excluded.spell_tokens`,
		armyID, unitID, boolInt(us.Shaken), boolInt(us.Fatigued), boolInt(us.Activated), us.SpellTokens)
	if err != nil {
		return fmt.Errorf("set unit state %s/%s: %w", armyID, unitID, err)
	}
	return nil
}

// SetPoints stores an army's command and underdog point pools.
func (s *Store) SetPoints(ctx context.Context, armyID string, command, underdog int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO army_points (army_id, command_points, underdog_points)
		 VALUES (?, ?, ?)
		 ON CONFLICT (army_id) DO UPDATE SET
		   command_points = excluded.command_points, underdog_points = excluded.underdog_points`,
		armyID, command, underdog)
	if err != nil {
		return fmt.Errorf("set points %s: %w", armyID, err)
	}
	return nil
}

// SpendCommandPoints deducts n command points, flooring at zero, and
// returns the remaining pool.
func (s *Store) SpendCommandPoints(ctx context.Context, armyID string, n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("spend amount must be positive")
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE army_points SET command_points = MAX(0, command_points - ?) WHERE army_id = ?`,
		n, armyID)
	if err != nil {
		return 0, fmt.Errorf("spend command points: %w", err)
	}
	var left int
	if err := s.db.QueryRowContext(ctx,
		`SELECT command_points FROM army_points WHERE army_id = ?`, armyID).Scan(&left); err != nil {
		return 0, fmt.Errorf("read command points: %w", err)
	}
	return left, nil
}

// ResetRound clears activation and fatigue for every unit of an army at
// the start of a new round. Shaken, tokens, and wounds carry over.
func (s *Store) ResetRound(ctx context.Context, armyID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE unit_state SET activated = 0, fatigued = 0 WHERE army_id = ?`, armyID)
	if err != nil {
		return fmt.Errorf("reset round %s: %w", armyID, err)
	}
	return nil
}

// ArmyState reads back the full tracked state of one army.
func (s *Store) ArmyState(ctx context.Context, armyID string) (ArmyState, error) {
	out := ArmyState{
		Models: map[string]map[string]ModelHP{},
		Units:  map[string]UnitState{},
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT unit_id, model_id, current_hp, max_hp FROM model_hp WHERE army_id = ?`, armyID)
	if err != nil {
		return out, fmt.Errorf("query model hp: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var unitID, modelID string
		var hp ModelHP
		if err := rows.Scan(&unitID, &modelID, &hp.Current, &hp.Max); err != nil {
			return out, fmt.Errorf("scan model hp: %w", err)
		}
		if out.Models[unitID] == nil {
			out.Models[unitID] = map[string]ModelHP{}
		}
		out.Models[unitID][modelID] = hp
	}
	if err := rows.Err(); err != nil {
		return out, fmt.Errorf("iterate model hp: %w", err)
	}

	urows, err := s.db.QueryContext(ctx,
		`SELECT unit_id, shaken, fatigued, activated, spell_tokens FROM unit_state WHERE army_id = ?`, armyID)
	if err != nil {
		return out, fmt.Errorf("query unit state: %w", err)
	}
	defer urows.Close()
	for urows.Next() {
		var unitID string
		var shaken, fatigued, activated int
		var us UnitState
		if err := urows.Scan(&unitID, &shaken, &fatigued, &activated, &us.SpellTokens); err != nil {
			return out, fmt.Errorf("scan unit state: %w", err)
		}
		us.Shaken = shaken != 0
		us.Fatigued = fatigued != 0
		us.Activated = activated != 0
		out.Units[unitID] = us
	}
	if err := urows.Err(); err != nil {
		return out, fmt.Errorf("iterate unit state: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT command_points, underdog_points FROM army_points WHERE army_id = ?`,
		armyID).Scan(&out.CommandPoints, &out.UnderdogPoints)
	if err != nil && err != sql.ErrNoRows {
		return out, fmt.Errorf("query army points: %w", err)
	}
	return out, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
