// ABOUTME: Pipeline stage ordering and classification helpers
// ABOUTME: Single source of truth for which stages exist and which are terminal
package models

// OrderedStages returns the pipeline stages in board order.
func OrderedStages() []string {
	return []string{
		StageLead,
		StageQualified,
		StageProposal,
		StageNegotiation,
		StageClosedWon,
		StageClosedLost,
	}
}

var stageNames = map[string]string{
	StageLead:        "Lead",
	StageQualified:   "Qualified",
	StageProposal:    "Proposal",
	StageNegotiation: "Negotiation",
	StageClosedWon:   "Closed Won",
	StageClosedLost:  "Closed Lost",
}

// IsKnownStage reports whether stage is one of the pipeline stages.
func IsKnownStage(stage string) bool {
	_, ok := stageNames[stage]
	return ok
}

// IsTerminalStage reports whether a deal in stage is closed.
func IsTerminalStage(stage string) bool {
	return stage == StageClosedWon || stage == StageClosedLost
}

// StageName returns the display name for stage, or the raw value when unknown.
func StageName(stage string) string {
	if name, ok := stageNames[stage]; ok {
		return name
	}
	return stage
}
