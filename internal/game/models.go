/*
Package game
File: models.go
Description:
    Defines the data structures of the Resource Rush economy.
    Catalog types map directly to 'catalog.yaml'; player types map to the
    JSON records written by the storage layer and to the snapshots pushed
    to connected clients.

    No logic is performed here; this file is strictly for type definitions.
*/

package game

// GeneratorDef is a catalog production unit a player can own many of.
type GeneratorDef struct {
	ID             int     `yaml:"id" json:"id"`                           // Unique, stable ID
	Name           string  `yaml:"name" json:"name"`                       // Display name (e.g., "Simple Miner")
	BaseCost       float64 `yaml:"base_cost" json:"base_cost"`             // Price of the first unit
	ProductionRate float64 `yaml:"production_rate" json:"production_rate"` // Gems per tick per owned unit
}

// Milestone unlocks a production multiplier once a generator reaches Owned units.
type Milestone struct {
	Owned      int     `yaml:"owned" json:"owned"`
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`
}

// ClickMilestone sets the gems earned per manual click after Clicks lifetime clicks.
type ClickMilestone struct {
	Clicks       int64   `yaml:"clicks" json:"clicks"`
	GemsPerClick float64 `yaml:"gems_per_click" json:"gems_per_click"`
}

// QuestDef is an ordered achievement. Catalog order is display order.
type QuestDef struct {
	ID          int       `yaml:"id" json:"id"`
	Description string    `yaml:"description" json:"description"`
	Condition   Condition `yaml:"condition" json:"condition"`
}

// Catalog is the immutable set of definitions loaded once at startup.
type Catalog struct {
	Generators      []GeneratorDef   `yaml:"generators" json:"generators"`
	Quests          []QuestDef       `yaml:"quests" json:"quests"`
	Milestones      []Milestone      `yaml:"milestones" json:"milestones"`
	ClickMilestones []ClickMilestone `yaml:"click_milestones" json:"click_milestones"`
}

// GeneratorState is one player's holding of a catalog generator.
type GeneratorState struct {
	ID          int     `json:"id"`           // GeneratorDef.ID
	Owned       int     `json:"owned"`        // Units owned
	CurrentCost float64 `json:"current_cost"` // Price of the next unit
}

// QuestState latches from incomplete to complete, never back.
type QuestState struct {
	ID         int  `json:"id"`
	IsComplete bool `json:"is_complete"`
}

// PlayerState is the root aggregate of one player's economy.
// Generators and Quests always hold exactly one entry per catalog entry, in catalog order.
type PlayerState struct {
	GemCount          float64          `json:"gem_count"`
	TotalManualClicks int64            `json:"total_manual_clicks"`
	Generators        []GeneratorState `json:"generators"`
	Quests            []QuestState     `json:"quests"`
}

// SaveMetadata is stored next to a PlayerState to decide whether it is still compatible.
type SaveMetadata struct {
	SaveVersion int `json:"save_version"`
}

// GeneratorView is a generator as the client sees it: definition, holding and next milestone.
type GeneratorView struct {
	ID             int        `json:"id"`
	Name           string     `json:"name"`
	BaseCost       float64    `json:"base_cost"`
	ProductionRate float64    `json:"production_rate"`
	Owned          int        `json:"owned"`
	CurrentCost    float64    `json:"current_cost"`
	NextMilestone  *Milestone `json:"next_milestone,omitempty"`
}

// QuestView is the quest currently shown to the player.
type QuestView struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// Snapshot is pushed to the presentation layer after every mutation.
type Snapshot struct {
	GemCount           float64         `json:"gem_count"`
	GemsPerSecond      float64         `json:"gems_per_second"`
	Generators         []GeneratorView `json:"generators"`
	CurrentQuest       *QuestView      `json:"current_quest"`        // nil once every quest is complete
	GemsPerClick       float64         `json:"gems_per_click"`
	NextClickMilestone *ClickMilestone `json:"next_click_milestone"` // nil when maxed
}
