/*
Package game
File: state.go
Description:
    Loads the static catalog and builds player state from it.

    The catalog is read once (from 'catalog.yaml' or the embedded default),
    validated, and never mutated afterwards. NewPlayerState clones catalog
    defaults into a fresh aggregate; Reconcile repairs an aggregate loaded
    from an older save so it matches the running catalog again.
*/

package game

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// ErrInvalidCatalog wraps every validation failure.
var ErrInvalidCatalog = errors.New("invalid catalog")

// DefaultCatalog parses the catalog shipped with the server.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog reads a catalog file. An empty path selects the embedded default.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(f)
}

// ParseCatalog unmarshals and validates a YAML catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate enforces the ordering and uniqueness rules the economy relies on.
func (c *Catalog) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidCatalog, fmt.Sprintf(format, args...))
	}

	seen := make(map[int]bool, len(c.Generators))
	for _, g := range c.Generators {
		if g.ID <= 0 || seen[g.ID] {
			return invalid("generator id %d is not unique and positive", g.ID)
		}
		seen[g.ID] = true
		// Below this the floored cost curve can repeat a price.
		if g.BaseCost*(CostGrowth-1) < 1 {
			return invalid("generator %d: base cost %v too low", g.ID, g.BaseCost)
		}
		if g.ProductionRate < 0 {
			return invalid("generator %d: negative production rate", g.ID)
		}
	}

	for i, m := range c.Milestones {
		if m.Multiplier <= 0 {
			return invalid("milestone %d: multiplier must be positive", m.Owned)
		}
		if i > 0 && m.Owned <= c.Milestones[i-1].Owned {
			return invalid("milestones must be strictly ascending (at %d)", m.Owned)
		}
	}
	for i, m := range c.ClickMilestones {
		if m.GemsPerClick <= 0 {
			return invalid("click milestone %d: gems per click must be positive", m.Clicks)
		}
		if i > 0 && m.Clicks <= c.ClickMilestones[i-1].Clicks {
			return invalid("click milestones must be strictly ascending (at %d)", m.Clicks)
		}
	}

	quests := make(map[int]bool, len(c.Quests))
	for _, q := range c.Quests {
		if q.ID <= 0 || quests[q.ID] {
			return invalid("quest id %d is not unique and positive", q.ID)
		}
		quests[q.ID] = true
		if err := q.Condition.validate(c); err != nil {
			return invalid("quest %d: %v", q.ID, err)
		}
	}
	return nil
}

// Generator looks up a generator definition by ID.
func (c *Catalog) Generator(id int) (GeneratorDef, bool) {
	for _, g := range c.Generators {
		if g.ID == id {
			return g, true
		}
	}
	return GeneratorDef{}, false
}

// Quest looks up a quest definition by ID.
func (c *Catalog) Quest(id int) (QuestDef, bool) {
	for _, q := range c.Quests {
		if q.ID == id {
			return q, true
		}
	}
	return QuestDef{}, false
}

// NewPlayerState builds a fresh aggregate with one zeroed entry per catalog entry.
func (c *Catalog) NewPlayerState() *PlayerState {
	s := &PlayerState{
		Generators: make([]GeneratorState, len(c.Generators)),
		Quests:     make([]QuestState, len(c.Quests)),
	}
	for i, def := range c.Generators {
		s.Generators[i] = GeneratorState{ID: def.ID, CurrentCost: PurchaseCost(def, 0)}
	}
	for i, def := range c.Quests {
		s.Quests[i] = QuestState{ID: def.ID}
	}
	return s
}

// Reconcile repairs a loaded aggregate in place:
//  1. Generators and Quests are rebuilt in catalog order, one entry per definition.
//     Unknown IDs are dropped, missing ones are added zeroed, duplicates keep the first.
//  2. CurrentCost is recomputed from Owned, so saves that predate the field are backfilled.
//  3. Negative or non-finite counters are reset to zero.
func (c *Catalog) Reconcile(s *PlayerState) {
	if s.GemCount < 0 || math.IsNaN(s.GemCount) || math.IsInf(s.GemCount, 0) {
		s.GemCount = 0
	}
	if s.TotalManualClicks < 0 {
		s.TotalManualClicks = 0
	}

	owned := make(map[int]int, len(s.Generators))
	for _, g := range s.Generators {
		if _, dup := owned[g.ID]; !dup {
			owned[g.ID] = g.Owned
		}
	}
	gens := make([]GeneratorState, len(c.Generators))
	for i, def := range c.Generators {
		n := owned[def.ID]
		if n < 0 {
			n = 0
		}
		gens[i] = GeneratorState{ID: def.ID, Owned: n, CurrentCost: PurchaseCost(def, n)}
	}
	s.Generators = gens

	complete := make(map[int]bool, len(s.Quests))
	for _, q := range s.Quests {
		complete[q.ID] = complete[q.ID] || q.IsComplete
	}
	quests := make([]QuestState, len(c.Quests))
	for i, def := range c.Quests {
		quests[i] = QuestState{ID: def.ID, IsComplete: complete[def.ID]}
	}
	s.Quests = quests
}

// Clone returns a deep copy, safe to hand to another goroutine.
func (s *PlayerState) Clone() *PlayerState {
	cp := *s
	cp.Generators = append([]GeneratorState(nil), s.Generators...)
	cp.Quests = append([]QuestState(nil), s.Quests...)
	return &cp
}
