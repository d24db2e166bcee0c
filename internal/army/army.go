// Package army normalizes raw army-list documents into a directly
// renderable domain model: units with resolved final stats, flat
// weapon/rule/item inventories, and one tracked model per model slot.
// The transform is pure, synchronous, and idempotent; all I/O belongs to
// the surrounding packages.
package army

import (
	"errors"

	"go.uber.org/zap"
)

// ErrNoUnits reports a raw document missing its unit list entirely.
var ErrNoUnits = errors.New("army list has no units")

// Meta carries army-level metadata and derived totals.
type Meta struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	GameSystem      string `json:"gameSystem,omitempty"`
	PointsLimit     int    `json:"pointsLimit,omitempty"`
	ListPoints      int    `json:"listPoints"`
	ModelCount      int    `json:"modelCount"`
	ActivationCount int    `json:"activationCount"`
}

// NormalizedArmy is the engine's output: the final unit list plus the
// two lookup indices the presentation and persistence layers read.
type NormalizedArmy struct {
	Meta            Meta              `json:"meta"`
	Units           []*Unit           `json:"units"`
	UnitMap         map[string]*Unit  `json:"-"`
	HeroJoinTargets map[string]string `json:"heroJoinTargets,omitempty"`
}

// Engine runs the normalization pipeline. Safe for concurrent use: each
// Normalize call works on its own copies.
type Engine struct {
	log *zap.Logger
}

// NewEngine returns an engine logging diagnostics to log. A nil logger
// disables diagnostics.
func NewEngine(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{log: log}
}

// Normalize transforms one raw list document into a NormalizedArmy. It
// either returns a complete, internally consistent army or an error;
// there is no partial-success mode.
func (e *Engine) Normalize(raw RawList) (*NormalizedArmy, error) {
	if raw.Units == nil {
		return nil, ErrNoUnits
	}

	units := make([]*Unit, 0, len(raw.Units))
	for _, ru := range raw.Units {
		u := newDraftUnit(ru)
		applyUpgrades(u, ru)
		resolveLoadout(u, ru.Loadout)
		synthesizeModels(u)
		units = append(units, u)
	}

	// Merge pass. Units are indexed by selection id first and resolved
	// through the index, so self- or cross-referential join graphs can't
	// chase live pointers mid-construction.
	bySelection := make(map[string]*Unit, len(units))
	for _, u := range units {
		bySelection[u.SelectionID] = u
	}
	mergedAway := map[string]bool{}
	for _, u := range units {
		if !u.IsCombined || u.JoinToUnitID == "" {
			continue
		}
		host, ok := bySelection[u.JoinToUnitID]
		if !ok || !host.IsCombined || host.SelectionID == u.SelectionID {
			// recoverable data inconsistency: keep the unit standalone
			e.log.Warn("combined unit has no valid partner, demoting to standalone",
				zap.String("unit", u.DisplayName()),
				zap.String("selectionId", u.SelectionID),
				zap.String("joinTo", u.JoinToUnitID))
			u.IsCombined = false
			u.JoinToUnitID = ""
			continue
		}
		mergeUnits(host, u)
		mergedAway[u.SelectionID] = true
	}

	final := make([]*Unit, 0, len(units))
	for _, u := range units {
		if !mergedAway[u.SelectionID] {
			final = append(final, u)
		}
	}

	out := &NormalizedArmy{
		Meta: Meta{
			ID:          raw.ID,
			Name:        raw.Name,
			GameSystem:  raw.GameSystem,
			PointsLimit: raw.PointsLimit,
			ListPoints:  raw.ListPoints,
		},
		Units:           final,
		UnitMap:         make(map[string]*Unit, len(final)),
		HeroJoinTargets: map[string]string{},
	}
	for _, u := range final {
		out.UnitMap[u.SelectionID] = u
		if u.IsHero && u.CanJoinUnitID != "" {
			out.HeroJoinTargets[u.SelectionID] = u.CanJoinUnitID
		}
		// derived, never carried over from the raw input
		out.Meta.ModelCount += u.Size
	}
	out.Meta.ActivationCount = len(final)
	if out.Meta.ListPoints == 0 {
		for _, u := range final {
			out.Meta.ListPoints += u.Cost
		}
	}
	return out, nil
}
