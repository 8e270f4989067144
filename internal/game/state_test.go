package game

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaultCatalogShape(t *testing.T) {
	cat := testCatalog(t)
	if len(cat.Generators) != 8 || len(cat.Quests) != 15 {
		t.Fatalf("unexpected catalog size: %d generators, %d quests", len(cat.Generators), len(cat.Quests))
	}
	if len(cat.Milestones) != 7 || len(cat.ClickMilestones) != 20 {
		t.Fatalf("unexpected milestone tables: %d, %d", len(cat.Milestones), len(cat.ClickMilestones))
	}
	if last := cat.ClickMilestones[len(cat.ClickMilestones)-1]; last.Clicks != 10_000_000_000 {
		t.Fatalf("expected last click milestone at 1e10 got %d", last.Clicks)
	}
}

func TestParseCatalogRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"duplicate generator": `
generators:
  - { id: 1, name: a, base_cost: 15, production_rate: 1 }
  - { id: 1, name: b, base_cost: 15, production_rate: 1 }`,
		"cheap generator": `
generators:
  - { id: 1, name: a, base_cost: 2, production_rate: 1 }`,
		"unsorted milestones": `
milestones:
  - { owned: 25, multiplier: 3 }
  - { owned: 10, multiplier: 2 }`,
		"unsorted click milestones": `
click_milestones:
  - { clicks: 500, gems_per_click: 3 }
  - { clicks: 500, gems_per_click: 4 }`,
		"unknown condition": `
quests:
  - { id: 1, description: x, condition: { type: clicks_at_least, amount: 1 } }`,
		"condition on missing generator": `
quests:
  - { id: 1, description: x, condition: { type: generator_owned_at_least, generator_id: 7, count: 1 } }`,
	}
	for name, doc := range tests {
		_, err := ParseCatalog([]byte(doc))
		if !errors.Is(err, ErrInvalidCatalog) {
			t.Errorf("%s: expected ErrInvalidCatalog got %v", name, err)
		}
	}
}

func TestLoadCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := `
generators:
  - { id: 3, name: Pump, base_cost: 40, production_rate: 2 }
quests:
  - { id: 1, description: Own a Pump, condition: { type: generator_owned_at_least, generator_id: 3, count: 1 } }
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cat, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if g, ok := cat.Generator(3); !ok || g.Name != "Pump" {
		t.Fatalf("expected Pump got %+v ok=%v", g, ok)
	}
	if q, ok := cat.Quest(1); !ok || q.Condition != GeneratorOwnedAtLeast(3, 1) {
		t.Fatalf("unexpected quest %+v", q)
	}
}

func TestLoadCatalogMissingFile(t *testing.T) {
	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestNewPlayerStateMatchesCatalog(t *testing.T) {
	cat := testCatalog(t)
	s := cat.NewPlayerState()

	if s.GemCount != 0 || s.TotalManualClicks != 0 {
		t.Fatalf("unexpected counters: %+v", s)
	}
	for i, def := range cat.Generators {
		g := s.Generators[i]
		if g.ID != def.ID || g.Owned != 0 || g.CurrentCost != def.BaseCost {
			t.Fatalf("generator %d: unexpected %+v", i, g)
		}
	}
	for i, def := range cat.Quests {
		if s.Quests[i].ID != def.ID || s.Quests[i].IsComplete {
			t.Fatalf("quest %d: unexpected %+v", i, s.Quests[i])
		}
	}

	// Fresh states never share backing arrays.
	other := cat.NewPlayerState()
	other.Generators[0].Owned = 5
	if s.Generators[0].Owned != 0 {
		t.Fatalf("states share generator storage")
	}
}

func TestReconcileRepairsOldShape(t *testing.T) {
	cat := testCatalog(t)
	s := &PlayerState{
		GemCount: -4,
		Generators: []GeneratorState{
			{ID: 2, Owned: 3},
			{ID: 99, Owned: 7},
			{ID: 2, Owned: 50},
		},
		Quests: []QuestState{{ID: 4, IsComplete: true}, {ID: 404, IsComplete: true}},
	}

	cat.Reconcile(s)

	if s.GemCount != 0 {
		t.Fatalf("expected negative gems clamped got %v", s.GemCount)
	}
	if len(s.Generators) != len(cat.Generators) || len(s.Quests) != len(cat.Quests) {
		t.Fatalf("expected one entry per catalog entry")
	}
	for i, def := range cat.Generators {
		if s.Generators[i].ID != def.ID {
			t.Fatalf("generator %d out of catalog order", i)
		}
	}
	drill := s.Generators[1]
	if drill.Owned != 3 || drill.CurrentCost != PurchaseCost(cat.Generators[1], 3) {
		t.Fatalf("expected first duplicate kept and cost backfilled got %+v", drill)
	}
	if !s.Quests[3].IsComplete {
		t.Fatalf("expected quest 4 to stay complete")
	}
}

func TestReconcileKeepsValidStateUnchanged(t *testing.T) {
	cat := testCatalog(t)
	s := cat.NewPlayerState()
	s.GemCount = 50
	cat.Buy(s, 1)
	cat.Click(s)
	before := s.Clone()

	cat.Reconcile(s)
	if !reflect.DeepEqual(before, s) {
		t.Fatalf("reconcile changed a valid state:\n%+v\n%+v", before, s)
	}
}
