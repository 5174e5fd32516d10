package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/invoice-auditor/constants"
	"github.com/joseph-ayodele/invoice-auditor/internal/entity"
)

func strp(s string) *string { return &s }

func TestMetrics_Empty(t *testing.T) {
	m := Metrics(nil)
	assert.Zero(t, m.TotalProcessed)
	assert.Zero(t, m.Flagged)
	assert.Zero(t, m.Duplicates)
	assert.Zero(t, m.AvgApprovalMinutes)
}

func TestMetrics_Counters(t *testing.T) {
	created := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	approved := created.Add(30 * time.Minute)

	invs := []*entity.Invoice{
		{RiskLevel: constants.RiskLow, CreatedAt: created},
		{RiskLevel: constants.RiskMedium, CreatedAt: created},
		{RiskLevel: constants.RiskHigh, CreatedAt: created, ApprovalTime: &approved},
		{
			RiskLevel:  constants.RiskLow,
			FlagReason: strp("DUP_VENDOR_INV_NO"),
			CreatedAt:  created,
		},
	}

	m := Metrics(invs)
	assert.Equal(t, 4, m.TotalProcessed)
	assert.Equal(t, 3, m.Flagged) // medium, high, duplicate-flagged
	assert.Equal(t, 1, m.Duplicates)
	assert.InDelta(t, 30.0, m.AvgApprovalMinutes, 0.001)
}

func TestMetrics_AveragesOnlyDecidedInvoices(t *testing.T) {
	created := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	fast := created.Add(10 * time.Minute)
	slow := created.Add(50 * time.Minute)

	invs := []*entity.Invoice{
		{CreatedAt: created, ApprovalTime: &fast},
		{CreatedAt: created, ApprovalTime: &slow},
		{CreatedAt: created}, // still pending, excluded
	}

	m := Metrics(invs)
	assert.InDelta(t, 30.0, m.AvgApprovalMinutes, 0.001)
}
