package army

import (
	"strconv"
	"strings"
)

// ========================= Raw list document =========================
// Shapes as exported by the list-builder service. The export is loosely
// typed: numeric fields arrive as numbers or strings depending on which
// builder version produced the list, so anything numeric that matters
// decodes through FlexInt.

// FlexInt decodes a JSON number or a numeric string. Unparsable values
// decode to 0 rather than failing the whole document.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	// tolerate trailing markers like "3+"
	s = strings.TrimSuffix(s, "+")
	n, err := strconv.Atoi(s)
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexInt(n)
	return nil
}

// RawList is one army list document, already parsed from JSON.
type RawList struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	GameSystem  string    `json:"gameSystem,omitempty"`
	PointsLimit int       `json:"pointsLimit,omitempty"`
	ListPoints  int       `json:"listPoints,omitempty"`
	Units       []RawUnit `json:"units"`
}

// RawUnit is a single unit entry with its option/gain trees unresolved.
type RawUnit struct {
	ID               string        `json:"id"`
	SelectionID      string        `json:"selectionId"`
	Name             string        `json:"name"`
	CustomName       string        `json:"customName,omitempty"`
	Cost             int           `json:"cost"`
	Size             int           `json:"size"`
	Quality          FlexInt       `json:"quality"`
	Defense          FlexInt       `json:"defense"`
	XP               int           `json:"xp,omitempty"`
	Traits           []string      `json:"traits,omitempty"`
	Rules            []RawRule     `json:"rules"`
	Items            []RawGain     `json:"items,omitempty"`
	SelectedUpgrades []RawSelected `json:"selectedUpgrades,omitempty"`
	Loadout          []RawGain     `json:"loadout,omitempty"`
	Combined         bool          `json:"combined,omitempty"`
	JoinToUnit       string        `json:"joinToUnit,omitempty"`
}

type RawRule struct {
	ID     string  `json:"id,omitempty"`
	Name   string  `json:"name"`
	Label  string  `json:"label,omitempty"`
	Rating FlexInt `json:"rating,omitempty"`
}

// RawSelected is one selected upgrade: an instance of an option picked in
// the builder. The same option may be selected more than once, each
// selection carrying its own instance id.
type RawSelected struct {
	InstanceID string    `json:"instanceId"`
	Option     RawOption `json:"option"`
}

type RawOption struct {
	UID   string    `json:"uid"`
	Label string    `json:"label,omitempty"`
	Cost  int       `json:"cost"`
	Costs []RawCost `json:"costs,omitempty"`
	Gains []RawGain `json:"gains"`
}

// RawCost is a per-unit cost override for an option.
type RawCost struct {
	UnitID string `json:"unitId"`
	Cost   int    `json:"cost"`
}

// Gain type discriminators used by the list export.
const (
	gainRule    = "ArmyBookRule"
	gainDefense = "ArmyBookDefense"
	gainItem    = "ArmyBookItem"
	gainWeapon  = "ArmyBookWeapon"
)

// RawGain is one node of an option's gain tree, a base item, or a loadout
// entry: a rule, an item with nested content, or a weapon profile.
type RawGain struct {
	Type         string    `json:"type,omitempty"`
	ID           string    `json:"id,omitempty"`
	Name         string    `json:"name"`
	Label        string    `json:"label,omitempty"`
	Rating       FlexInt   `json:"rating,omitempty"`
	Count        int       `json:"count,omitempty"`
	Range        FlexInt   `json:"range,omitempty"`
	Attacks      FlexInt   `json:"attacks,omitempty"`
	SpecialRules []RawRule `json:"specialRules,omitempty"`
	Content      []RawGain `json:"content,omitempty"`
}

func (g RawGain) isWeapon() bool {
	return g.Type == gainWeapon
}

func (g RawGain) isItem() bool {
	return g.Type == gainItem
}
