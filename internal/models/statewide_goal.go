package models

// StatewideGoal is one of Oregon's 19 statewide planning goals.
type StatewideGoal struct {
	Requirements []string    `json:"requirements" yaml:"requirements"`
	Title        string      `json:"title" yaml:"title"`
	Description  string      `json:"description" yaml:"description"`
	Trigger      GoalTrigger `json:"trigger" yaml:"trigger"`
	ID           int64       `json:"id" yaml:"id"`
	Number       int         `json:"goalNumber" yaml:"number"`
}

// GoalTrigger decides when a goal applies to a project. A goal applies when
// any configured condition holds.
type GoalTrigger struct {
	// ZonePatterns match as substrings of the upper-cased zoning code.
	ZonePatterns []string `json:"zonePatterns,omitempty" yaml:"zone_patterns,omitempty"`
	// Keywords match as case-insensitive substrings of the project description.
	Keywords            []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Always              bool     `json:"always,omitempty" yaml:"always,omitempty"`
	Floodplain          bool     `json:"floodplain,omitempty" yaml:"floodplain,omitempty"`
	Riparian            bool     `json:"riparian,omitempty" yaml:"riparian,omitempty"`
	UrbanGrowthBoundary bool     `json:"urbanGrowthBoundary,omitempty" yaml:"urban_growth_boundary,omitempty"`
}

// GoalRequirement is one checkable requirement of a statewide goal.
type GoalRequirement struct {
	Type     string `json:"requirementType" yaml:"type"`
	Text     string `json:"requirementText" yaml:"text"`
	Criteria string `json:"complianceCriteria" yaml:"criteria"`
	Priority string `json:"priority" yaml:"priority"`
	ID       int64  `json:"id" yaml:"id"`
	GoalID   int64  `json:"goalId" yaml:"goal_id"`
}

// GoalFinding records whether one requirement was met.
type GoalFinding struct {
	Requirement string `json:"requirement"`
	Criteria    string `json:"criteria,omitempty"`
	Met         bool   `json:"met"`
}

// GoalEvaluation is the verdict for a single goal.
type GoalEvaluation struct {
	Findings            []GoalFinding `json:"findings"`
	Recommendations     []string      `json:"recommendations"`
	Title               string        `json:"title"`
	Status              LevelStatus   `json:"status"`
	GoalNumber          int           `json:"goalNumber"`
	RequirementsChecked int           `json:"requirementsChecked"`
	RequirementsUnmet   int           `json:"requirementsUnmet"`
	// Applicable is false when the goal was evaluated on request but its
	// trigger does not match the project.
	Applicable bool `json:"applicable"`
}
