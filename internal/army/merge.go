package army

// ========================= Combined-unit merge =========================

// mergeUnits folds one half of a combined formation into its host. The
// host is mutated in place; the caller drops the folded unit from the
// final list.
//
// Stat policy: quality takes the lower of the two values and defense the
// higher ("best of"). Traits concatenate, items merge by identity with
// counts summed, rules re-run through the accumulator over the union of
// both sets, and the model lists concatenate with every model's
// previously computed hit points preserved verbatim.
func mergeUnits(host, other *Unit) {
	host.Size += other.Size
	host.Cost += other.Cost
	host.XP += other.XP

	if other.Quality < host.Quality {
		host.Quality = other.Quality
	}
	if other.Defense > host.Defense {
		host.Defense = other.Defense
	}
	if other.CasterLevel > host.CasterLevel {
		host.CasterLevel = other.CasterLevel
	}

	host.Traits = append(host.Traits, other.Traits...)
	host.Rules = AccumulateRules(append(host.Rules, other.Rules...))
	for _, it := range other.Items {
		host.addItem(it)
	}
	host.Weapons = append(host.Weapons, other.Weapons...)
	host.Models = append(host.Models, other.Models...)

	// a combined unit is never itself a hero; every model now carries
	// the merged unit's final stats
	for i := range host.Models {
		host.Models[i].BaseStats = ModelStats{Quality: host.Quality, Defense: host.Defense}
		host.Models[i].IsHero = false
	}

	host.IsCombined = true
	host.IsHero = false
	host.JoinToUnitID = ""
	host.CanJoinUnitID = ""
}
