package session

import "time"

// Report is the strategic live report rendered alongside the table.
type Report struct {
	SessionID     string           `json:"sessionId"`
	Topic         string           `json:"topic"`
	Summary       string           `json:"summary"`
	KeyInsights   []string         `json:"keyInsights"`
	KeyTakeaways  []AgentTakeaway  `json:"keyTakeaways"`
	RiskMatrix    []RiskEntry      `json:"riskMatrix"`
	FinalDecision string           `json:"finalDecision"`
	Timeline      []TimelineEntry  `json:"timeline"`
	GeneratedAt   time.Time        `json:"generatedAt"`
}

// AgentTakeaway is one participant's headline contribution.
type AgentTakeaway struct {
	AgentName string `json:"agentName"`
	Takeaway  string `json:"takeaway"`
}

// RiskEntry is one row of the risk matrix.
type RiskEntry struct {
	Threat string `json:"threat"`
	Impact string `json:"impact"`
}

// TimelineEntry records who contributed what, in order.
type TimelineEntry struct {
	AgentName       string `json:"agentName"`
	KeyContribution string `json:"keyContribution"`
}

// Clone returns a deep copy of the report.
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	out := *r
	out.KeyInsights = append([]string(nil), r.KeyInsights...)
	out.KeyTakeaways = append([]AgentTakeaway(nil), r.KeyTakeaways...)
	out.RiskMatrix = append([]RiskEntry(nil), r.RiskMatrix...)
	out.Timeline = append([]TimelineEntry(nil), r.Timeline...)
	return &out
}
