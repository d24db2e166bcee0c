package army

import (
	"testing"

	"go.uber.org/zap"
)

func combinedPair() (RawUnit, RawUnit) {
	a := RawUnit{
		ID: "u1", SelectionID: "sA", Name: "Warriors", Cost: 80, Size: 3,
		Quality: 4, Defense: 5, XP: 2,
		Traits:   []string{"Agile"},
		Combined: true, JoinToUnit: "sB",
	}
	b := RawUnit{
		ID: "u1", SelectionID: "sB", Name: "Warriors", Cost: 50, Size: 2,
		Quality: 5, Defense: 4, XP: 1,
		Traits:   []string{"Resilient"},
		Combined: true,
	}
	return a, b
}

func TestMergeConservation(t *testing.T) {
	a, b := combinedPair()
	eng := NewEngine(nil)
	out, err := eng.Normalize(RawList{ID: "l1", Units: []RawUnit{a, b}})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Units) != 1 {
		t.Fatalf("expected 1 merged unit, got %d", len(out.Units))
	}
	m := out.Units[0]
	if m.Size != 5 || m.Cost != 130 {
		t.Fatalf("size/cost = %d/%d, want 5/130", m.Size, m.Cost)
	}
	if m.XP != 3 {
		t.Fatalf("xp = %d, want 3", m.XP)
	}
	if len(m.Models) != 5 {
		t.Fatalf("models = %d, want 5", len(m.Models))
	}
	for _, mod := range m.Models {
		if mod.CurrentHP != mod.MaxHP || mod.MaxHP != 1 {
			t.Fatalf("model hp not preserved: %+v", mod)
		}
	}
	if len(m.Traits) != 2 {
		t.Fatalf("traits should concatenate, got %v", m.Traits)
	}
}

// The best-of resolution for quality/defense on merge is a policy
// decision, not a discovered invariant; this test pins the chosen policy.
func TestMergeBestOfStatPolicy(t *testing.T) {
	a, b := combinedPair()
	eng := NewEngine(nil)
	out, err := eng.Normalize(RawList{ID: "l1", Units: []RawUnit{a, b}})
	if err != nil {
		t.Fatal(err)
	}
	m := out.Units[0]
	if m.Quality != 4 {
		t.Fatalf("quality = %d, want min(4,5) = 4", m.Quality)
	}
	if m.Defense != 5 {
		t.Fatalf("defense = %d, want max(5,4) = 5", m.Defense)
	}
	for _, mod := range m.Models {
		if mod.BaseStats.Quality != 4 || mod.BaseStats.Defense != 5 {
			t.Fatalf("merged model baseStats not rewritten: %+v", mod.BaseStats)
		}
		if mod.IsHero {
			t.Fatal("merged models are never heroes")
		}
	}
}

func TestMergeReaccumulatesRules(t *testing.T) {
	a, b := combinedPair()
	a.Rules = []RawRule{{Name: "Tough", Rating: 3}}
	b.Rules = []RawRule{{Name: "Tough", Rating: 3}}
	eng := NewEngine(nil)
	out, err := eng.Normalize(RawList{ID: "l1", Units: []RawUnit{a, b}})
	if err != nil {
		t.Fatal(err)
	}
	r := findRule(out.Units[0].Rules, "Tough")
	if r == nil || r.Rating != 6 {
		t.Fatalf("expected Tough(6) after merge, got %+v", r)
	}
	if r.Label != "Tough(6)" {
		t.Fatalf("label not regenerated, got %q", r.Label)
	}
}

func TestMergeSumsItemCounts(t *testing.T) {
	a, b := combinedPair()
	shield := RawGain{Type: gainItem, Name: "Shield", Count: 2}
	a.Items = []RawGain{shield}
	b.Items = []RawGain{shield}
	eng := NewEngine(nil)
	out, err := eng.Normalize(RawList{ID: "l1", Units: []RawUnit{a, b}})
	if err != nil {
		t.Fatal(err)
	}
	items := out.Units[0].Items
	if len(items) != 1 || items[0].Count != 4 {
		t.Fatalf("item counts not re-aggregated: %+v", items)
	}
}

func TestMergeClearsFlags(t *testing.T) {
	a, b := combinedPair()
	eng := NewEngine(nil)
	out, _ := eng.Normalize(RawList{ID: "l1", Units: []RawUnit{a, b}})
	m := out.Units[0]
	if !m.IsCombined || m.JoinToUnitID != "" || m.IsHero || m.CanJoinUnitID != "" {
		t.Fatalf("post-merge flags wrong: %+v", m)
	}
}

func TestUnknownPartnerDemotesToStandalone(t *testing.T) {
	a, _ := combinedPair()
	a.JoinToUnit = "missing"
	eng := NewEngine(zap.NewNop())
	out, err := eng.Normalize(RawList{ID: "l1", Units: []RawUnit{a}})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Units) != 1 {
		t.Fatalf("demoted unit must stay in the list, got %d units", len(out.Units))
	}
	u := out.Units[0]
	if u.IsCombined {
		t.Fatal("unit with missing partner should be demoted to standalone")
	}
	if u.JoinToUnitID != "" {
		t.Fatalf("dangling join reference kept: %q", u.JoinToUnitID)
	}
}

func TestNonCombinedPartnerDemotes(t *testing.T) {
	a, b := combinedPair()
	b.Combined = false
	eng := NewEngine(nil)
	out, err := eng.Normalize(RawList{ID: "l1", Units: []RawUnit{a, b}})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Units) != 2 {
		t.Fatalf("no merge should happen, got %d units", len(out.Units))
	}
	for _, u := range out.Units {
		if u.SelectionID == "sA" && u.IsCombined {
			t.Fatal("unit pointing at a non-combined partner must demote")
		}
	}
}
