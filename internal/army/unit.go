package army

import "strconv"

// ========================= Unit pipeline =========================
// Initializer -> Upgrade Applicator -> Loadout Resolver. Each step
// mutates the working unit in place; none of them touch the raw input.

// newDraftUnit builds the pre-upgrade unit record from raw base
// attributes. Rules and items are copied, never aliased, because later
// passes mutate them in place.
func newDraftUnit(raw RawUnit) *Unit {
	size := raw.Size
	if size < 1 {
		size = 1
	}
	u := &Unit{
		ID:          raw.ID,
		SelectionID: raw.SelectionID,
		Name:        raw.Name,
		CustomName:  raw.CustomName,
		Cost:        raw.Cost,
		Size:        size,
		Quality:     int(raw.Quality),
		Defense:     int(raw.Defense),
		XP:          raw.XP,
		BaseTough:   1,
		IsCombined:  raw.Combined,
		Traits:      append([]string(nil), raw.Traits...),
	}
	for _, rr := range raw.Rules {
		u.Rules = append(u.Rules, ruleFromRaw(rr))
	}
	for _, ig := range raw.Items {
		u.addItem(itemFromGain(ig))
	}
	u.IsHero = findRule(u.Rules, "Hero") != nil
	if t := findRule(u.Rules, "Tough"); t != nil && t.Rating > 0 {
		u.BaseTough = t.Rating
	}
	if raw.JoinToUnit != "" {
		if raw.Combined {
			u.JoinToUnitID = raw.JoinToUnit
		} else if u.IsHero {
			u.CanJoinUnitID = raw.JoinToUnit
		}
	}
	return u
}

// optionCost prefers the per-unit cost override when the option carries
// one for this unit, falling back to the option's flat cost.
func optionCost(opt RawOption, unitID string) int {
	for _, c := range opt.Costs {
		if c.UnitID == unitID {
			return c.Cost
		}
	}
	return opt.Cost
}

// applyUpgrades walks the selected-upgrade list, accumulating point cost
// and applying each option's gains. Scalar stat effects are guarded by a
// once-per-(instance,gain-slot) key so a rule reached twice, e.g. via a
// re-walked item content tree or a duplicated selection entry, never
// mutates stats twice. Rule gains always join the accumulation pool; the
// pool plus the base rules run through AccumulateRules at the end.
func applyUpgrades(u *Unit, raw RawUnit) {
	applied := map[string]bool{}
	var pool []Rule
	for _, sel := range raw.SelectedUpgrades {
		u.Cost += optionCost(sel.Option, raw.ID)
		for gi, gain := range sel.Option.Gains {
			key := sel.InstanceID + "#" + strconv.Itoa(gi)
			applyGain(u, sel.Option.UID, gain, key, applied, &pool)
		}
	}
	u.Rules = AccumulateRules(append(u.Rules, pool...))
}

func applyGain(u *Unit, optionUID string, gain RawGain, key string, applied map[string]bool, pool *[]Rule) {
	switch gain.Type {
	case gainItem:
		u.addItem(itemFromGain(gain))
		for ci, sub := range gain.Content {
			applyGain(u, optionUID, sub, key+"/"+strconv.Itoa(ci), applied, pool)
		}
	case gainWeapon:
		u.Weapons = append(u.Weapons, weaponFromGain(gain))
	default: // gainRule, gainDefense, and untyped entries are all rules
		r := ruleFromGain(gain)
		*pool = append(*pool, r)
		if applied[key] {
			return
		}
		applied[key] = true
		applyScalar(u, optionUID, r)
	}
}

// applyScalar applies a rule's effect on the unit's scalar stats.
func applyScalar(u *Unit, optionUID string, r Rule) {
	if r.Rating <= 0 {
		return
	}
	switch r.Name {
	case "Caster":
		// last applied wins
		u.CasterLevel = r.Rating
	case "Tough":
		// recorded for per-model assignment, no unit-level stat change
		u.recordToughUpgrade(optionUID, r.Rating)
	case "Defense":
		// only the first defense-modifying upgrade reduces the stat;
		// later Defense rules still show up in the rule list
		if !u.defenseModified {
			u.Defense -= r.Rating
			if u.Defense < 2 {
				u.Defense = 2
			}
			u.defenseModified = true
		}
	case "Quality":
		u.Quality = r.Rating
	}
}

func (u *Unit) recordToughUpgrade(optionUID string, value int) {
	for i := range u.toughUpgrades {
		if u.toughUpgrades[i].OptionUID == optionUID {
			u.toughUpgrades[i].Count++
			return
		}
	}
	u.toughUpgrades = append(u.toughUpgrades, ToughnessUpgrade{OptionUID: optionUID, Count: 1, Value: value})
}

// resolveLoadout folds the equipped weapon/item list into the unit.
// Weapons are appended flat, multiplicity intact. Item rule content is
// folded append-if-absent only: the loadout pass never accumulates
// ratings and never re-derives scalar stats.
func resolveLoadout(u *Unit, entries []RawGain) {
	for _, e := range entries {
		switch e.Type {
		case gainWeapon:
			u.Weapons = append(u.Weapons, weaponFromGain(e))
		case gainItem:
			u.addItem(itemFromGain(e))
			for _, sub := range e.Content {
				if sub.isWeapon() {
					u.Weapons = append(u.Weapons, weaponFromGain(sub))
					continue
				}
				u.Rules = appendRuleIfAbsent(u.Rules, ruleFromGain(sub))
			}
		default:
			u.Rules = appendRuleIfAbsent(u.Rules, ruleFromGain(e))
		}
	}
}
