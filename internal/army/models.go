package army

import "fmt"

// ========================= Model synthesis =========================

// synthesizeModels expands the unit's final size into individual model
// entities, each with its own hit-point pool.
//
// "needed" counts the model slots that receive an upgraded toughness
// value; the value itself always comes from the first toughness-upgrade
// record, since the source data never says which upgrade belongs to
// which model. A single-model unit treats the upgrade as additive on top
// of base toughness (a mount or vehicle gaining wounds); a multi-model
// unit treats it as a replacement (a weapon-team slot inside a squad).
func synthesizeModels(u *Unit) {
	needed := 0
	for _, t := range u.toughUpgrades {
		needed += t.Count
	}
	if needed > u.Size {
		needed = u.Size
	}
	upgradeValue := 0
	if len(u.toughUpgrades) > 0 {
		upgradeValue = u.toughUpgrades[0].Value
	}

	u.Models = make([]Model, 0, u.Size)
	for i := 0; i < u.Size; i++ {
		m := Model{
			ID:        fmt.Sprintf("%s-model-%d", u.SelectionID, i+1),
			IsHero:    u.IsHero,
			BaseStats: ModelStats{Quality: u.Quality, Defense: u.Defense},
		}
		if i < needed {
			m.IsTough = true
			if u.Size == 1 {
				m.MaxHP = u.BaseTough + upgradeValue
			} else {
				m.MaxHP = upgradeValue
			}
		} else {
			m.MaxHP = u.BaseTough
			m.IsTough = u.BaseTough > 1
		}
		if m.MaxHP < 1 {
			m.MaxHP = 1
		}
		m.CurrentHP = m.MaxHP
		u.Models = append(u.Models, m)
	}
}
