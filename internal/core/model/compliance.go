package model

type Tier string

const (
	TierRed    Tier = "red"
	TierOrange Tier = "orange"
	TierYellow Tier = "yellow"
)

// ComplianceDecision records one matched rule during a filtering pass.
// Decisions exist only for the duration of a run: they are rendered into
// the compliance-report artifact and then discarded.
type ComplianceDecision struct {
	RuleID       string `json:"rule_id"`
	Tier         Tier   `json:"tier"`
	OriginalSpan string `json:"original_span"`
	Action       string `json:"replacement_or_action"`
	Rationale    string `json:"rationale"`
}
