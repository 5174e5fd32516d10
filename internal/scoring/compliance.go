package scoring

import (
	"math"
	"time"

	"github.com/joseph-ayodele/invoice-auditor/constants"
	"github.com/joseph-ayodele/invoice-auditor/internal/entity"
)

// ComplianceInput carries the extracted fields the compliance checks look at.
// IsDuplicate reflects a prior vendor+invoice-number match in storage.
type ComplianceInput struct {
	VendorName    string
	InvoiceNumber string
	InvoiceDate   string
	Currency      string
	TotalAmount   *float64
	LineItems     []entity.LineItem
	IsDuplicate   bool
}

// ComplianceResult is the clamped score plus the deduction reasons in the
// order the checks run.
type ComplianceResult struct {
	Score       int
	ReasonCodes []string
}

// lineTotalTolerance is the absolute allowance between the summed line item
// totals and the invoice total before a mismatch is flagged.
const lineTotalTolerance = 1.0

// Compliance starts at 100 and deducts per failed check. Reason codes come
// back in check order so repeated runs over the same input are identical.
func Compliance(in ComplianceInput) ComplianceResult {
	score := 100
	var reasons []string

	if in.VendorName == "" || in.InvoiceDate == "" || in.TotalAmount == nil || in.Currency == "" {
		score -= 25
		reasons = append(reasons, constants.ReasonReqFieldsMissing)
	}

	if !validISODate(in.InvoiceDate) {
		score -= 15
		reasons = append(reasons, constants.ReasonInvalidDate)
	}

	if in.Currency != "" && !constants.AllowedCurrency(in.Currency) {
		score -= 10
		reasons = append(reasons, constants.ReasonUnsupportedCurrency)
	}

	if len(in.LineItems) == 0 {
		score -= 20
		reasons = append(reasons, constants.ReasonMissingLineItems)
	} else if in.TotalAmount != nil {
		var sum float64
		for _, li := range in.LineItems {
			sum += li.TotalPrice
		}
		if math.Abs(sum-*in.TotalAmount) > lineTotalTolerance {
			score -= 20
			reasons = append(reasons, constants.ReasonLineTotalMismatch)
		}
	}

	if in.IsDuplicate {
		score -= 35
		reasons = append(reasons, constants.ReasonDupVendorInvNo)
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return ComplianceResult{Score: score, ReasonCodes: reasons}
}

func validISODate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
