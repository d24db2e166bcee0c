package army

import "fmt"

// ========================= Rule accumulation =========================

// additiveRules is the family of rules whose ratings stack additively
// when the same rule arrives from more than one source. Everything else
// dedups first-seen-wins.
var additiveRules = map[string]bool{
	"Tough":   true,
	"AP":      true,
	"Blast":   true,
	"Impact":  true,
	"Rending": true,
	"Defense": true,
}

// ruleKey resolves an identity for dedup purposes. The fallback order
// id, then label, then name is the contract; an empty result means the
// entry has no identity and is never deduplicated.
func ruleKey(id, label, name string) string {
	if id != "" {
		return id
	}
	if label != "" {
		return label
	}
	return name
}

// Key returns the rule's dedup identity.
func (r Rule) Key() string { return ruleKey(r.ID, r.Label, r.Name) }

func ratingLabel(name string, rating int) string {
	return fmt.Sprintf("%s(%d)", name, rating)
}

// AccumulateRules merges a sequence of rule instances into a
// deduplicated set. Additive rules with a rating sum their ratings and
// regenerate the label; non-additive duplicates keep the first
// occurrence; identity-less rules pass through verbatim. The final
// rating sum is order-independent, but which instance's non-rating
// fields survive for non-additive duplicates is first-seen-wins.
func AccumulateRules(in []Rule) []Rule {
	out := make([]Rule, 0, len(in))
	seen := make(map[string]int, len(in))
	for _, r := range in {
		key := r.Key()
		if key == "" {
			out = append(out, r)
			continue
		}
		if i, ok := seen[key]; ok {
			if additiveRules[r.Name] && r.Rating > 0 {
				out[i].Rating += r.Rating
				out[i].Label = ratingLabel(out[i].Name, out[i].Rating)
			}
			continue
		}
		nr := r
		if additiveRules[nr.Name] && nr.Rating > 0 {
			nr.Label = ratingLabel(nr.Name, nr.Rating)
		}
		seen[key] = len(out)
		out = append(out, nr)
	}
	return out
}

// appendRuleIfAbsent folds a rule into a set with identity-based dedup
// only: no rating accumulation, later duplicates are dropped. Used by the
// loadout pass, which must never re-derive stats.
func appendRuleIfAbsent(rules []Rule, r Rule) []Rule {
	key := r.Key()
	if key == "" {
		return append(rules, r)
	}
	for i := range rules {
		if rules[i].Key() == key {
			return rules
		}
	}
	return append(rules, r)
}

// findRule returns the first rule with the given name, or nil.
func findRule(rules []Rule, name string) *Rule {
	for i := range rules {
		if rules[i].Name == name {
			return &rules[i]
		}
	}
	return nil
}

func ruleFromRaw(rr RawRule) Rule {
	return Rule{ID: rr.ID, Name: rr.Name, Label: rr.Label, Rating: int(rr.Rating)}
}

func ruleFromGain(g RawGain) Rule {
	return Rule{ID: g.ID, Name: g.Name, Label: g.Label, Rating: int(g.Rating)}
}

func itemFromGain(g RawGain) Item {
	it := Item{ID: g.ID, Name: g.Name, Label: g.Label, Count: g.Count}
	if it.Count < 1 {
		it.Count = 1
	}
	for _, sub := range g.Content {
		if sub.isWeapon() || sub.isItem() {
			continue
		}
		it.Rules = append(it.Rules, ruleFromGain(sub))
	}
	return it
}

func weaponFromGain(g RawGain) Weapon {
	w := Weapon{
		Name:    g.Name,
		Label:   g.Label,
		Range:   int(g.Range),
		Attacks: int(g.Attacks),
		Count:   g.Count,
	}
	if w.Count < 1 {
		w.Count = 1
	}
	for _, sr := range g.SpecialRules {
		w.SpecialRules = append(w.SpecialRules, ruleFromRaw(sr))
	}
	return w
}
