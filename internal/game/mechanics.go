/*
Package game
File: mechanics.go
Description:
    The rules engine of the economy. Every function here is pure: it reads
    a milestone table or a definition and returns a number, so none of them
    need locking.
*/

package game

import "math"

// CostGrowth is the price multiplier applied per unit already owned.
const CostGrowth = 1.15

// ProductionMultiplier resolves the multiplier for a generator with 'owned' units.
// Milestones are scanned from the highest threshold down; 1 when none is reached.
func ProductionMultiplier(owned int, milestones []Milestone) float64 {
	for i := len(milestones) - 1; i >= 0; i-- {
		if owned >= milestones[i].Owned {
			return milestones[i].Multiplier
		}
	}
	return 1
}

// GeneratorOutput is the per-tick production of one holding.
// Formula: Owned * ProductionRate * ProductionMultiplier(Owned)
func GeneratorOutput(gen GeneratorState, def GeneratorDef, milestones []Milestone) float64 {
	if gen.Owned <= 0 {
		return 0
	}
	return float64(gen.Owned) * def.ProductionRate * ProductionMultiplier(gen.Owned, milestones)
}

// ClickYield resolves the gems earned by one manual click, given the lifetime
// click count *before* that click. Defaults to 1 below the lowest threshold.
func ClickYield(totalClicks int64, clickMilestones []ClickMilestone) float64 {
	for i := len(clickMilestones) - 1; i >= 0; i-- {
		if totalClicks >= clickMilestones[i].Clicks {
			return clickMilestones[i].GemsPerClick
		}
	}
	return 1
}

// PurchaseCost is the price of the next unit once 'ownedAfter' units are owned.
// Formula: floor(BaseCost * 1.15^ownedAfter)
func PurchaseCost(def GeneratorDef, ownedAfter int) float64 {
	return math.Floor(def.BaseCost * math.Pow(CostGrowth, float64(ownedAfter)))
}

// NextMilestone returns the first milestone above 'owned', if any.
// Used for UI hints only.
func NextMilestone(owned int, milestones []Milestone) (Milestone, bool) {
	for _, m := range milestones {
		if owned < m.Owned {
			return m, true
		}
	}
	return Milestone{}, false
}

// NextClickMilestone returns the first click milestone above 'totalClicks', if any.
func NextClickMilestone(totalClicks int64, clickMilestones []ClickMilestone) (ClickMilestone, bool) {
	for _, m := range clickMilestones {
		if totalClicks < m.Clicks {
			return m, true
		}
	}
	return ClickMilestone{}, false
}
