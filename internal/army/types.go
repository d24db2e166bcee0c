package army

// ========================= Normalized domain =========================
// Output shapes consumed by the rendering and persistence layers. These
// are produced once per Normalize call and never aliased to the raw
// input document.

// Rule is a special rule carried by a unit, an item, or a weapon.
// Identity (see Key) decides dedup; Name membership in the additive
// family decides rating accumulation.
type Rule struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Label  string `json:"label,omitempty"`
	Rating int    `json:"rating,omitempty"`
}

// Item is a non-weapon piece of equipment. Repeated grants of the same
// item increment Count rather than duplicating the entry.
type Item struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Label string `json:"label,omitempty"`
	Count int    `json:"count"`
	Rules []Rule `json:"specialRules,omitempty"`
}

// Weapon is one attack profile. Weapons are listed per grant; display
// aggregation happens downstream.
type Weapon struct {
	Name         string `json:"name"`
	Label        string `json:"label,omitempty"`
	Range        int    `json:"range,omitempty"`
	Attacks      int    `json:"attacks,omitempty"`
	Count        int    `json:"count"`
	SpecialRules []Rule `json:"specialRules,omitempty"`
}

// ModelStats are the per-model copies of the owning unit's final stats.
type ModelStats struct {
	Quality int `json:"quality"`
	Defense int `json:"defense"`
}

// Model is one tracked model slot with its own hit-point pool. Created at
// full health by the synthesizer and never mutated by the engine again;
// runtime wound tracking lives in the state store.
type Model struct {
	ID        string     `json:"modelId"`
	MaxHP     int        `json:"maxHp"`
	CurrentHP int        `json:"currentHp"`
	IsHero    bool       `json:"isHero"`
	IsTough   bool       `json:"isTough"`
	BaseStats ModelStats `json:"baseStats"`
}

// ToughnessUpgrade records one distinct upgrade option that granted a
// Tough-style rule, with how many times that option was selected.
type ToughnessUpgrade struct {
	OptionUID string
	Count     int
	Value     int
}

// Unit is the fully normalized form: resolved final stats, flat
// weapon/rule/item inventories, and one Model per model slot.
type Unit struct {
	ID          string `json:"id"`
	SelectionID string `json:"selectionId"`
	Name        string `json:"name"`
	CustomName  string `json:"customName,omitempty"`

	Cost        int `json:"cost"`
	Size        int `json:"size"`
	Quality     int `json:"quality"`
	Defense     int `json:"defense"`
	XP          int `json:"xp,omitempty"`
	CasterLevel int `json:"casterLevel,omitempty"`
	BaseTough   int `json:"baseTough"`

	IsHero        bool   `json:"isHero"`
	IsCombined    bool   `json:"isCombined"`
	JoinToUnitID  string `json:"joinToUnitId,omitempty"`
	CanJoinUnitID string `json:"canJoinUnitId,omitempty"`

	Traits  []string `json:"traits,omitempty"`
	Rules   []Rule   `json:"rules"`
	Items   []Item   `json:"items,omitempty"`
	Weapons []Weapon `json:"weapons"`
	Models  []Model  `json:"models"`

	// working data for the upgrade/model passes, not serialized
	toughUpgrades   []ToughnessUpgrade
	defenseModified bool
}

// DisplayName prefers the player's custom name over the datasheet name.
func (u *Unit) DisplayName() string {
	if u.CustomName != "" {
		return u.CustomName
	}
	return u.Name
}

// addItem inserts an item or, when an item with the same identity is
// already present, adds its count to the existing entry.
func (u *Unit) addItem(it Item) {
	key := ruleKey(it.ID, it.Label, it.Name)
	for i := range u.Items {
		if ruleKey(u.Items[i].ID, u.Items[i].Label, u.Items[i].Name) == key {
			u.Items[i].Count += it.Count
			return
		}
	}
	u.Items = append(u.Items, it)
}
