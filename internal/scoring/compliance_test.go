package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/invoice-auditor/constants"
	"github.com/joseph-ayodele/invoice-auditor/internal/entity"
)

func f64(v float64) *float64 { return &v }

func cleanInput() ComplianceInput {
	return ComplianceInput{
		VendorName:    "Acme Corp",
		InvoiceNumber: "INV-1001",
		InvoiceDate:   "2026-03-15",
		Currency:      "USD",
		TotalAmount:   f64(250.00),
		LineItems: []entity.LineItem{
			{Description: "Widgets", Quantity: 10, UnitPrice: 25, TotalPrice: 250},
		},
	}
}

func TestCompliance_CleanInvoiceScoresFull(t *testing.T) {
	res := Compliance(cleanInput())
	assert.Equal(t, 100, res.Score)
	assert.Empty(t, res.ReasonCodes)
}

func TestCompliance_Deductions(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ComplianceInput)
		score   int
		reasons []string
	}{
		{
			name:    "missing vendor",
			mutate:  func(in *ComplianceInput) { in.VendorName = "" },
			score:   75,
			reasons: []string{constants.ReasonReqFieldsMissing},
		},
		{
			name:    "missing total",
			mutate:  func(in *ComplianceInput) { in.TotalAmount = nil },
			score:   75,
			reasons: []string{constants.ReasonReqFieldsMissing},
		},
		{
			name:    "missing currency",
			mutate:  func(in *ComplianceInput) { in.Currency = "" },
			score:   75,
			reasons: []string{constants.ReasonReqFieldsMissing},
		},
		{
			name:    "bad date format",
			mutate:  func(in *ComplianceInput) { in.InvoiceDate = "15/03/2026" },
			score:   85,
			reasons: []string{constants.ReasonInvalidDate},
		},
		{
			name:    "unsupported currency",
			mutate:  func(in *ComplianceInput) { in.Currency = "XyZ" },
			score:   90,
			reasons: []string{constants.ReasonUnsupportedCurrency},
		},
		{
			name:    "lowercase supported currency passes",
			mutate:  func(in *ComplianceInput) { in.Currency = "usd" },
			score:   100,
			reasons: nil,
		},
		{
			name:    "no line items",
			mutate:  func(in *ComplianceInput) { in.LineItems = nil },
			score:   80,
			reasons: []string{constants.ReasonMissingLineItems},
		},
		{
			name: "line totals disagree with invoice total",
			mutate: func(in *ComplianceInput) {
				in.LineItems = []entity.LineItem{{Description: "Widgets", TotalPrice: 100}}
			},
			score:   80,
			reasons: []string{constants.ReasonLineTotalMismatch},
		},
		{
			name: "line totals within tolerance",
			mutate: func(in *ComplianceInput) {
				in.LineItems = []entity.LineItem{{Description: "Widgets", TotalPrice: 249.20}}
			},
			score:   100,
			reasons: nil,
		},
		{
			name:    "duplicate vendor and invoice number",
			mutate:  func(in *ComplianceInput) { in.IsDuplicate = true },
			score:   65,
			reasons: []string{constants.ReasonDupVendorInvNo},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := cleanInput()
			tt.mutate(&in)
			res := Compliance(in)
			assert.Equal(t, tt.score, res.Score)
			assert.Equal(t, tt.reasons, res.ReasonCodes)
		})
	}
}

// An absent date is both a missing required field and an invalid date: the
// checks deduct independently, so both fire.
func TestCompliance_EmptyDateDeductsTwice(t *testing.T) {
	in := cleanInput()
	in.InvoiceDate = ""
	res := Compliance(in)
	assert.Equal(t, 60, res.Score)
	assert.Equal(t, []string{
		constants.ReasonReqFieldsMissing,
		constants.ReasonInvalidDate,
	}, res.ReasonCodes)
}

// Missing line items and a line total mismatch can never both fire: without
// line items there is no sum to compare.
func TestCompliance_LineChecksMutuallyExclusive(t *testing.T) {
	in := cleanInput()
	in.LineItems = nil
	res := Compliance(in)
	assert.Contains(t, res.ReasonCodes, constants.ReasonMissingLineItems)
	assert.NotContains(t, res.ReasonCodes, constants.ReasonLineTotalMismatch)
}

func TestCompliance_StackedDeductionsClampAtZero(t *testing.T) {
	in := ComplianceInput{
		InvoiceDate: "not-a-date",
		Currency:    "ZZZ",
		IsDuplicate: true,
	}
	res := Compliance(in)
	// 100 - 25 - 15 - 10 - 20 - 35 = -5, clamped.
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, []string{
		constants.ReasonReqFieldsMissing,
		constants.ReasonInvalidDate,
		constants.ReasonUnsupportedCurrency,
		constants.ReasonMissingLineItems,
		constants.ReasonDupVendorInvNo,
	}, res.ReasonCodes)
}

func TestCompliance_ReasonOrderIsStable(t *testing.T) {
	in := cleanInput()
	in.VendorName = ""
	in.InvoiceDate = "March 15"
	first := Compliance(in)
	second := Compliance(in)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{
		constants.ReasonReqFieldsMissing,
		constants.ReasonInvalidDate,
	}, first.ReasonCodes)
}
