package scoring

import (
	"github.com/joseph-ayodele/invoice-auditor/constants"
)

// Confidence below this threshold adds a risk penalty and forces manual review.
const LowConfidenceThreshold = 0.70

const lowConfidencePenalty = 10

// Risk level boundaries on the 0..100 risk score.
const (
	HighRiskThreshold   = 60
	MediumRiskThreshold = 30
)

// RiskResult pairs the numeric score with its coarse level and the full set
// of reason codes, compliance reasons included.
type RiskResult struct {
	Score       int
	Level       constants.RiskLevel
	ReasonCodes []string
}

// Risk inverts the compliance score and adds a penalty for low extraction
// confidence. The input reason slice is never mutated; the result always
// carries its own copy.
func Risk(compliance ComplianceResult, confidence float64) RiskResult {
	score := 100 - compliance.Score

	reasons := append([]string(nil), compliance.ReasonCodes...)
	if confidence < LowConfidenceThreshold {
		score += lowConfidencePenalty
		if !contains(reasons, constants.ReasonLowConfidence) {
			reasons = append(reasons, constants.ReasonLowConfidence)
		}
	}
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	return RiskResult{Score: score, Level: Classify(score), ReasonCodes: reasons}
}

// Classify maps a risk score to its level.
func Classify(score int) constants.RiskLevel {
	switch {
	case score >= HighRiskThreshold:
		return constants.RiskHigh
	case score >= MediumRiskThreshold:
		return constants.RiskMedium
	default:
		return constants.RiskLow
	}
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
