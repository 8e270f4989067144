package game

import (
	"reflect"
	"testing"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	cat, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	return cat
}

func TestBuyDeductsAndReprices(t *testing.T) {
	cat := testCatalog(t)
	s := cat.NewPlayerState()
	s.GemCount = 15

	if !cat.Buy(s, 1) {
		t.Fatalf("expected purchase to succeed")
	}
	if s.GemCount != 0 {
		t.Fatalf("expected 0 gems got %v", s.GemCount)
	}
	if s.Generators[0].Owned != 1 {
		t.Fatalf("expected 1 owned got %d", s.Generators[0].Owned)
	}
	if s.Generators[0].CurrentCost != 17 {
		t.Fatalf("expected next cost 17 got %v", s.Generators[0].CurrentCost)
	}
	if !s.Quests[1].IsComplete {
		t.Fatalf("expected 'Own 1 Simple Miner' to complete")
	}
}

func TestBuyInsufficientGemsIsNoop(t *testing.T) {
	cat := testCatalog(t)
	s := cat.NewPlayerState()
	s.GemCount = 14
	before := s.Clone()

	if cat.Buy(s, 1) {
		t.Fatalf("expected purchase to fail")
	}
	if !reflect.DeepEqual(before, s) {
		t.Fatalf("state changed on failed purchase: %+v", s)
	}
}

func TestBuyUnknownGeneratorIsNoop(t *testing.T) {
	cat := testCatalog(t)
	s := cat.NewPlayerState()
	s.GemCount = 1e12
	before := s.Clone()

	if cat.Buy(s, 999) {
		t.Fatalf("expected unknown generator to be rejected")
	}
	if !reflect.DeepEqual(before, s) {
		t.Fatalf("state changed on unknown generator")
	}
}

func TestClickUsesPreIncrementCount(t *testing.T) {
	cat := &Catalog{ClickMilestones: []ClickMilestone{{Clicks: 100, GemsPerClick: 2}}}
	s := &PlayerState{TotalManualClicks: 99}

	if got := cat.Click(s); got != 1 {
		t.Fatalf("expected first click to yield 1 got %v", got)
	}
	if s.TotalManualClicks != 100 || s.GemCount != 1 {
		t.Fatalf("unexpected state after first click: %+v", s)
	}
	if got := cat.Click(s); got != 2 {
		t.Fatalf("expected second click to yield 2 got %v", got)
	}
	if s.GemCount != 3 {
		t.Fatalf("expected 3 gems got %v", s.GemCount)
	}
}

func TestTickWithoutProductionLeavesStateUntouched(t *testing.T) {
	cat := testCatalog(t)
	s := cat.NewPlayerState()
	before := s.Clone()

	if got := cat.Tick(s); got != 0 {
		t.Fatalf("expected no production got %v", got)
	}
	if !reflect.DeepEqual(before, s) {
		t.Fatalf("state changed on empty tick")
	}
}

func TestTickAppliesMilestoneMultiplier(t *testing.T) {
	cat := testCatalog(t)
	s := cat.NewPlayerState()
	s.Generators[0].Owned = 10 // Simple Miner, rate 1, x2 at 10
	s.Generators[1].Owned = 1  // Advanced Drill, rate 8

	if got := cat.Tick(s); got != 28 {
		t.Fatalf("expected 28 produced got %v", got)
	}
	if s.GemCount != 28 {
		t.Fatalf("expected 28 gems got %v", s.GemCount)
	}
}

func TestQuestCompletionIsLatched(t *testing.T) {
	cat := testCatalog(t)
	s := cat.NewPlayerState()
	s.GemCount = 150

	done := cat.EvaluateQuests(s)
	if !reflect.DeepEqual(done, []int{1, 3}) {
		t.Fatalf("expected quests 1 and 3 got %v", done)
	}

	s.GemCount = 0
	if done := cat.EvaluateQuests(s); len(done) != 0 {
		t.Fatalf("expected nothing new got %v", done)
	}
	if !s.Quests[0].IsComplete || !s.Quests[2].IsComplete {
		t.Fatalf("completed quests were reset: %+v", s.Quests)
	}
}

func TestEvaluateQuestsIdempotent(t *testing.T) {
	cat := testCatalog(t)
	s := cat.NewPlayerState()
	s.GemCount = 2000
	s.Generators[0].Owned = 12

	cat.EvaluateQuests(s)
	first := append([]QuestState(nil), s.Quests...)
	cat.EvaluateQuests(s)
	if !reflect.DeepEqual(first, s.Quests) {
		t.Fatalf("second evaluation changed quests:\n%+v\n%+v", first, s.Quests)
	}
}

func TestSnapshot(t *testing.T) {
	cat := testCatalog(t)
	s := cat.NewPlayerState()
	s.GemCount = 5
	s.TotalManualClicks = 120
	s.Generators[0].Owned = 10
	s.Quests[0].IsComplete = true

	snap := cat.Snapshot(s)
	if snap.GemCount != 5 || snap.GemsPerClick != 2 || snap.GemsPerSecond != 20 {
		t.Fatalf("unexpected totals: %+v", snap)
	}
	if snap.CurrentQuest == nil || snap.CurrentQuest.ID != 2 {
		t.Fatalf("expected quest 2 to be current got %+v", snap.CurrentQuest)
	}
	if snap.NextClickMilestone == nil || snap.NextClickMilestone.Clicks != 500 {
		t.Fatalf("expected next click milestone 500 got %+v", snap.NextClickMilestone)
	}
	if len(snap.Generators) != len(cat.Generators) {
		t.Fatalf("expected %d generators got %d", len(cat.Generators), len(snap.Generators))
	}
	if m := snap.Generators[0].NextMilestone; m == nil || m.Owned != 25 {
		t.Fatalf("expected next milestone 25 got %+v", m)
	}
	if snap.Generators[0].Name != "Simple Miner" {
		t.Fatalf("expected generator name in view got %q", snap.Generators[0].Name)
	}
}

func TestSnapshotAllQuestsComplete(t *testing.T) {
	cat := testCatalog(t)
	s := cat.NewPlayerState()
	for i := range s.Quests {
		s.Quests[i].IsComplete = true
	}
	if snap := cat.Snapshot(s); snap.CurrentQuest != nil {
		t.Fatalf("expected no current quest got %+v", snap.CurrentQuest)
	}
}

func TestConditionMet(t *testing.T) {
	gens := []GeneratorState{{ID: 1, Owned: 3}}

	tests := []struct {
		name string
		cond Condition
		gems float64
		want bool
	}{
		{"gems below", GemsAtLeast(100), 99, false},
		{"gems reached", GemsAtLeast(100), 100, true},
		{"owned below", GeneratorOwnedAtLeast(1, 4), 0, false},
		{"owned reached", GeneratorOwnedAtLeast(1, 3), 0, true},
		{"missing generator", GeneratorOwnedAtLeast(2, 0), 0, false},
		{"unknown type", Condition{Type: "nope"}, 1e9, false},
	}
	for _, tt := range tests {
		if got := tt.cond.Met(tt.gems, gens); got != tt.want {
			t.Errorf("%s: expected %v got %v", tt.name, tt.want, got)
		}
	}
}
