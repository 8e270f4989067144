/*
Package game
File: conditions.go
Description:
    Quest conditions are data, not code. Each Condition is a tagged variant
    authored in 'catalog.yaml' and evaluated by Met against the player's
    gem count and generator holdings.
*/

package game

import "fmt"

// ConditionType selects which fields of a Condition are meaningful.
type ConditionType string

const (
	ConditionGemsAtLeast           ConditionType = "gems_at_least"            // Amount
	ConditionGeneratorOwnedAtLeast ConditionType = "generator_owned_at_least" // GeneratorID, Count
)

// Condition is a quest predicate over (gemCount, generators).
type Condition struct {
	Type        ConditionType `yaml:"type" json:"type" jsonschema:"enum=gems_at_least,enum=generator_owned_at_least"`
	Amount      float64       `yaml:"amount,omitempty" json:"amount,omitempty"`
	GeneratorID int           `yaml:"generator_id,omitempty" json:"generator_id,omitempty"`
	Count       int           `yaml:"count,omitempty" json:"count,omitempty"`
}

// GemsAtLeast is met once the player holds at least n gems.
func GemsAtLeast(n float64) Condition {
	return Condition{Type: ConditionGemsAtLeast, Amount: n}
}

// GeneratorOwnedAtLeast is met once the player owns at least n units of generator id.
func GeneratorOwnedAtLeast(id, n int) Condition {
	return Condition{Type: ConditionGeneratorOwnedAtLeast, GeneratorID: id, Count: n}
}

// Met evaluates the condition. Unknown types and missing generators are never met.
func (c Condition) Met(gemCount float64, generators []GeneratorState) bool {
	switch c.Type {
	case ConditionGemsAtLeast:
		return gemCount >= c.Amount
	case ConditionGeneratorOwnedAtLeast:
		for _, g := range generators {
			if g.ID == c.GeneratorID {
				return g.Owned >= c.Count
			}
		}
		return false
	default:
		return false
	}
}

// validate checks the variant's fields against the catalog it belongs to.
func (c Condition) validate(cat *Catalog) error {
	switch c.Type {
	case ConditionGemsAtLeast:
		if c.Amount < 0 {
			return fmt.Errorf("gems_at_least: negative amount %v", c.Amount)
		}
	case ConditionGeneratorOwnedAtLeast:
		if _, ok := cat.Generator(c.GeneratorID); !ok {
			return fmt.Errorf("generator_owned_at_least: unknown generator %d", c.GeneratorID)
		}
		if c.Count < 0 {
			return fmt.Errorf("generator_owned_at_least: negative count %d", c.Count)
		}
	default:
		return fmt.Errorf("unknown condition type %q", c.Type)
	}
	return nil
}
