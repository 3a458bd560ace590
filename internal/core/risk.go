package core

import "encoding/json"

// RiskTier is the discrete tier assigned to a combined risk score.
type RiskTier int

const (
	RiskLow RiskTier = iota
	RiskMedium
	RiskHigh
	RiskCritical
)

func (t RiskTier) String() string {
	switch t {
	case RiskLow:
		return "LOW"
	case RiskMedium:
		return "MEDIUM"
	case RiskHigh:
		return "HIGH"
	case RiskCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

func (t RiskTier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// PhishingStatus is the classification produced by the phishing scorer.
type PhishingStatus int

const (
	StatusLegitimate PhishingStatus = iota
	StatusLowRisk
	StatusSuspicious
	StatusPhishing
)

func (s PhishingStatus) String() string {
	switch s {
	case StatusLegitimate:
		return "LEGITIMATE"
	case StatusLowRisk:
		return "LOW_RISK"
	case StatusSuspicious:
		return "SUSPICIOUS"
	case StatusPhishing:
		return "PHISHING"
	default:
		return "UNKNOWN"
	}
}

func (s PhishingStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// DetectionResult is the phishing scorer's verdict for a single input.
// Reasons are ordered by evaluation: brand/typosquat findings always come
// before additive feature reasons.
type DetectionResult struct {
	Status   PhishingStatus `json:"status"`
	Reasons  []string       `json:"reasons"`
	Severity Severity       `json:"severity"`
	Score    int            `json:"score"`
}

// RiskReport is the combined output of ScoreRisk.
type RiskReport struct {
	Score int      `json:"score"`
	Tier  RiskTier `json:"tier"`
}

// ScoreRisk combines a phishing verdict with the tracker alert sets into a
// single score in [0,100] and a tier. Phishing status is graded, brute force
// contributions are capped regardless of alert count, and correlation adds a
// flat weight because it represents a likely successful intrusion.
func ScoreRisk(result DetectionResult, bruteforce, correlation []*Alert, w RiskConfig) RiskReport {
	score := 0

	switch result.Status {
	case StatusPhishing:
		score += w.PhishingWeight
	case StatusSuspicious:
		score += w.SuspiciousWeight
	case StatusLowRisk:
		score += w.LowRiskWeight
	}

	bf := len(bruteforce) * w.BruteForcePer
	if bf > w.BruteForceCap {
		bf = w.BruteForceCap
	}
	score += bf

	if len(correlation) > 0 {
		score += w.Correlation
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	tier := RiskLow
	switch {
	case score >= w.CriticalCutoff:
		tier = RiskCritical
	case score >= w.HighCutoff:
		tier = RiskHigh
	case score >= w.MediumCutoff:
		tier = RiskMedium
	}

	return RiskReport{Score: score, Tier: tier}
}
