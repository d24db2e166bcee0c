package army

import "testing"

func ratingGain(name string, rating int) RawGain {
	return RawGain{Type: gainRule, Name: name, Rating: FlexInt(rating)}
}

func selected(instance, optionUID string, cost int, gains ...RawGain) RawSelected {
	return RawSelected{
		InstanceID: instance,
		Option:     RawOption{UID: optionUID, Cost: cost, Gains: gains},
	}
}

func TestDraftUnitBasics(t *testing.T) {
	raw := RawUnit{
		ID: "u1", SelectionID: "s1", Name: "Battle Brothers",
		Cost: 150, Size: 5, Quality: 3, Defense: 4,
		Rules: []RawRule{{Name: "Hero"}, {Name: "Tough", Rating: 3}},
	}
	u := newDraftUnit(raw)
	if !u.IsHero {
		t.Fatal("unit with Hero rule should be flagged hero")
	}
	if u.BaseTough != 3 {
		t.Fatalf("base tough = %d, want 3", u.BaseTough)
	}
	if u.Quality != 3 || u.Defense != 4 {
		t.Fatalf("stats not copied: q=%d d=%d", u.Quality, u.Defense)
	}
}

func TestDraftUnitDefaults(t *testing.T) {
	u := newDraftUnit(RawUnit{ID: "u1", SelectionID: "s1", Name: "Lone Model"})
	if u.Size != 1 {
		t.Fatalf("missing size should default to 1, got %d", u.Size)
	}
	if u.BaseTough != 1 {
		t.Fatalf("missing Tough rule should default base toughness to 1, got %d", u.BaseTough)
	}
}

func TestDraftUnitDoesNotAliasRawRules(t *testing.T) {
	raw := RawUnit{
		ID: "u1", SelectionID: "s1", Size: 1,
		Rules: []RawRule{{Name: "Tough", Rating: 3}},
	}
	u := newDraftUnit(raw)
	u.Rules[0].Rating = 99
	if raw.Rules[0].Rating != 3 {
		t.Fatal("draft unit aliased the raw rule slice")
	}
}

func TestDefenseAppliedOncePerUnit(t *testing.T) {
	raw := RawUnit{
		ID: "u1", SelectionID: "s1", Size: 1, Defense: 4,
		SelectedUpgrades: []RawSelected{
			selected("i1", "opt-shield", 5, ratingGain("Defense", 1)),
			selected("i2", "opt-armor", 10, ratingGain("Defense", 1)),
		},
	}
	u := newDraftUnit(raw)
	applyUpgrades(u, raw)
	if u.Defense != 3 {
		t.Fatalf("defense = %d, want 3 (only first Defense upgrade lands)", u.Defense)
	}
	// both rules still recorded, accumulated to Defense(2)
	r := findRule(u.Rules, "Defense")
	if r == nil || r.Rating != 2 {
		t.Fatalf("expected accumulated Defense(2) in rule list, got %+v", r)
	}
}

func TestDefenseFloorIsTwo(t *testing.T) {
	raw := RawUnit{
		ID: "u1", SelectionID: "s1", Size: 1, Defense: 3,
		SelectedUpgrades: []RawSelected{
			selected("i1", "opt", 0, RawGain{Type: gainDefense, Name: "Defense", Rating: 5}),
		},
	}
	u := newDraftUnit(raw)
	applyUpgrades(u, raw)
	if u.Defense != 2 {
		t.Fatalf("defense = %d, want floor of 2", u.Defense)
	}
}

func TestCasterAndQualityLastWins(t *testing.T) {
	raw := RawUnit{
		ID: "u1", SelectionID: "s1", Size: 1, Quality: 5,
		SelectedUpgrades: []RawSelected{
			selected("i1", "opt-c1", 0, ratingGain("Caster", 1)),
			selected("i2", "opt-c2", 0, ratingGain("Caster", 3)),
			selected("i3", "opt-q", 0, ratingGain("Quality", 4)),
		},
	}
	u := newDraftUnit(raw)
	applyUpgrades(u, raw)
	if u.CasterLevel != 3 {
		t.Fatalf("caster level = %d, want 3 (last applied wins)", u.CasterLevel)
	}
	if u.Quality != 4 {
		t.Fatalf("quality = %d, want 4", u.Quality)
	}
}

func TestDuplicateInstanceDoesNotReapplyScalars(t *testing.T) {
	// the same selection entry exported twice: scalar effect lands once
	sel := selected("i1", "opt-c", 0, ratingGain("Caster", 2), ratingGain("Quality", 3))
	raw := RawUnit{
		ID: "u1", SelectionID: "s1", Size: 1, Quality: 5,
		SelectedUpgrades: []RawSelected{sel, sel},
	}
	u := newDraftUnit(raw)
	applyUpgrades(u, raw)
	if u.CasterLevel != 2 || u.Quality != 3 {
		t.Fatalf("duplicated instance re-applied scalars: caster=%d quality=%d", u.CasterLevel, u.Quality)
	}
}

func TestUpgradeCostPerUnitOverride(t *testing.T) {
	raw := RawUnit{
		ID: "u1", SelectionID: "s1", Size: 1, Cost: 100,
		SelectedUpgrades: []RawSelected{
			{
				InstanceID: "i1",
				Option: RawOption{
					UID:   "opt",
					Cost:  25,
					Costs: []RawCost{{UnitID: "other", Cost: 90}, {UnitID: "u1", Cost: 10}},
					Gains: []RawGain{ratingGain("Fear", 1)},
				},
			},
		},
	}
	u := newDraftUnit(raw)
	applyUpgrades(u, raw)
	if u.Cost != 110 {
		t.Fatalf("cost = %d, want 110 (per-unit override preferred)", u.Cost)
	}
}

func TestUpgradeItemGainDedupAndContent(t *testing.T) {
	item := RawGain{
		Type: gainItem, Name: "Ancestral Shield",
		Content: []RawGain{ratingGain("Defense", 1)},
	}
	raw := RawUnit{
		ID: "u1", SelectionID: "s1", Size: 1, Defense: 4,
		SelectedUpgrades: []RawSelected{
			selected("i1", "opt-a", 0, item),
			selected("i2", "opt-b", 0, item),
		},
	}
	u := newDraftUnit(raw)
	applyUpgrades(u, raw)
	if len(u.Items) != 1 {
		t.Fatalf("item should dedup to one entry, got %d", len(u.Items))
	}
	if u.Items[0].Count != 2 {
		t.Fatalf("repeated grant should increment count, got %d", u.Items[0].Count)
	}
	if u.Defense != 3 {
		t.Fatalf("defense = %d, want 3 (nested Defense applies once)", u.Defense)
	}
}

func TestUpgradeWeaponGainAppended(t *testing.T) {
	raw := RawUnit{
		ID: "u1", SelectionID: "s1", Size: 1,
		SelectedUpgrades: []RawSelected{
			selected("i1", "opt", 0, RawGain{Type: gainWeapon, Name: "Plasma Rifle", Range: 24, Attacks: 1}),
		},
	}
	u := newDraftUnit(raw)
	applyUpgrades(u, raw)
	if len(u.Weapons) != 1 || u.Weapons[0].Name != "Plasma Rifle" {
		t.Fatalf("weapon gain not appended: %+v", u.Weapons)
	}
}

func TestLoadoutWeaponsNeverDeduped(t *testing.T) {
	u := newDraftUnit(RawUnit{ID: "u1", SelectionID: "s1", Size: 2})
	rifle := RawGain{Type: gainWeapon, Name: "Rifle", Range: 24, Attacks: 1, Count: 1}
	resolveLoadout(u, []RawGain{rifle, rifle})
	if len(u.Weapons) != 2 {
		t.Fatalf("weapons are listed per grant, got %d entries", len(u.Weapons))
	}
}

func TestLoadoutItemRulesFoldWithoutScalars(t *testing.T) {
	raw := RawUnit{ID: "u1", SelectionID: "s1", Size: 1, Defense: 4}
	u := newDraftUnit(raw)
	resolveLoadout(u, []RawGain{
		{
			Type: gainItem, Name: "Shield Generator",
			Content: []RawGain{ratingGain("Defense", 1), ratingGain("Defense", 1)},
		},
	})
	if u.Defense != 4 {
		t.Fatalf("loadout pass must not touch scalar stats, defense = %d", u.Defense)
	}
	r := findRule(u.Rules, "Defense")
	if r == nil || r.Rating != 1 {
		t.Fatalf("expected single folded Defense rule, got %+v", r)
	}
	if len(u.Items) != 1 {
		t.Fatalf("item not added, items = %+v", u.Items)
	}
}

func TestLoadoutItemNestedWeapon(t *testing.T) {
	u := newDraftUnit(RawUnit{ID: "u1", SelectionID: "s1", Size: 1})
	resolveLoadout(u, []RawGain{
		{
			Type: gainItem, Name: "Weapon Platform",
			Content: []RawGain{{Type: gainWeapon, Name: "Heavy Cannon", Range: 36, Attacks: 2}},
		},
	})
	if len(u.Weapons) != 1 || u.Weapons[0].Name != "Heavy Cannon" {
		t.Fatalf("nested weapon not appended: %+v", u.Weapons)
	}
}
