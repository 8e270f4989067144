/*
Package game
File: economy.go
Description:
    Handles the economic simulation of a single player.
    This includes:
    1. Passive production (one tick of every owned generator).
    2. Manual drilling (clicks) with milestone-based yield.
    3. The generator purchase state machine.
    4. Quest evaluation, a one-way latch per quest.
    5. Building the client snapshot.

    These methods mutate only the PlayerState passed in. The caller owns
    exclusive access to it (see internal/session).
*/

package game

// TotalProduction sums the per-tick output of every generator the player owns.
func (c *Catalog) TotalProduction(s *PlayerState) float64 {
	total := 0.0
	for _, g := range s.Generators {
		if g.Owned <= 0 {
			continue
		}
		def, ok := c.Generator(g.ID)
		if !ok {
			continue
		}
		total += GeneratorOutput(g, def, c.Milestones)
	}
	return total
}

// EvaluateQuests latches every incomplete quest whose condition now holds.
// Completed quests are skipped, never re-evaluated. Returns the newly completed IDs.
func (c *Catalog) EvaluateQuests(s *PlayerState) []int {
	var completed []int
	for i := range s.Quests {
		q := &s.Quests[i]
		if q.IsComplete {
			continue
		}
		def, ok := c.Quest(q.ID)
		if !ok {
			continue
		}
		if def.Condition.Met(s.GemCount, s.Generators) {
			q.IsComplete = true
			completed = append(completed, q.ID)
		}
	}
	return completed
}

// Tick advances one interval of passive production.
// Returns the gems produced; zero means the state was left untouched.
func (c *Catalog) Tick(s *PlayerState) float64 {
	produced := c.TotalProduction(s)
	if produced <= 0 {
		return 0
	}
	s.GemCount += produced
	c.EvaluateQuests(s)
	return produced
}

// Click applies one manual drill. The yield uses the click count before the
// increment, so the click that reaches a milestone is still paid at the old rate.
func (c *Catalog) Click(s *PlayerState) float64 {
	earned := ClickYield(s.TotalManualClicks, c.ClickMilestones)
	s.GemCount += earned
	s.TotalManualClicks++
	c.EvaluateQuests(s)
	return earned
}

// Buy purchases one unit of a generator.
// Returns false, leaving the state untouched, when the generator is unknown
// or the player cannot afford it.
func (c *Catalog) Buy(s *PlayerState, generatorID int) bool {
	def, ok := c.Generator(generatorID)
	if !ok {
		return false
	}

	var gen *GeneratorState
	for i := range s.Generators {
		if s.Generators[i].ID == generatorID {
			gen = &s.Generators[i]
			break
		}
	}
	if gen == nil || s.GemCount < gen.CurrentCost {
		return false
	}

	s.GemCount -= gen.CurrentCost
	gen.Owned++
	gen.CurrentCost = PurchaseCost(def, gen.Owned)
	c.EvaluateQuests(s)
	return true
}

// Snapshot resolves everything the presentation layer shows for this player.
func (c *Catalog) Snapshot(s *PlayerState) Snapshot {
	snap := Snapshot{
		GemCount:      s.GemCount,
		GemsPerSecond: c.TotalProduction(s),
		GemsPerClick:  ClickYield(s.TotalManualClicks, c.ClickMilestones),
		Generators:    make([]GeneratorView, 0, len(s.Generators)),
	}

	for _, g := range s.Generators {
		def, ok := c.Generator(g.ID)
		if !ok {
			continue
		}
		view := GeneratorView{
			ID:             def.ID,
			Name:           def.Name,
			BaseCost:       def.BaseCost,
			ProductionRate: def.ProductionRate,
			Owned:          g.Owned,
			CurrentCost:    g.CurrentCost,
		}
		if m, ok := NextMilestone(g.Owned, c.Milestones); ok {
			view.NextMilestone = &m
		}
		snap.Generators = append(snap.Generators, view)
	}

	for _, q := range s.Quests {
		if q.IsComplete {
			continue
		}
		if def, ok := c.Quest(q.ID); ok {
			snap.CurrentQuest = &QuestView{ID: def.ID, Description: def.Description}
		}
		break
	}

	if m, ok := NextClickMilestone(s.TotalManualClicks, c.ClickMilestones); ok {
		snap.NextClickMilestone = &m
	}
	return snap
}
