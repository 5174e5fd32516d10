package scoring

import (
	"github.com/joseph-ayodele/invoice-auditor/constants"
)

// Route sends an invoice to the review queue when it is a duplicate, when
// extraction confidence is low, or when the risk score reaches the high band.
// Everything else goes straight to the finance manager.
func Route(isDuplicate bool, confidence float64, riskScore int) string {
	if isDuplicate || confidence < LowConfidenceThreshold || riskScore >= HighRiskThreshold {
		return constants.RouteReviewQueue
	}
	return constants.RouteReadyForFinMgr
}
