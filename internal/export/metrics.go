package export

import (
	"strings"

	"github.com/joseph-ayodele/invoice-auditor/constants"
	"github.com/joseph-ayodele/invoice-auditor/internal/entity"
)

// DashboardMetrics summarizes the pipeline for the dashboard endpoint.
type DashboardMetrics struct {
	TotalProcessed     int     `json:"total_processed"`
	Flagged            int     `json:"flagged"`
	Duplicates         int     `json:"duplicates"`
	AvgApprovalMinutes float64 `json:"avg_approval_minutes"`
}

// Metrics computes dashboard counters from the invoice set. Flagged covers
// anything risk-elevated or carrying a compliance or duplicate flag;
// approval latency averages only invoices that reached a review decision.
func Metrics(invoices []*entity.Invoice) DashboardMetrics {
	m := DashboardMetrics{TotalProcessed: len(invoices)}

	var latencySum float64
	var latencyN int
	for _, inv := range invoices {
		flag := ""
		if inv.FlagReason != nil {
			flag = *inv.FlagReason
		}
		if inv.RiskLevel == constants.RiskMedium || inv.RiskLevel == constants.RiskHigh ||
			strings.Contains(flag, "COMPLIANCE") || strings.Contains(flag, "DUP") {
			m.Flagged++
		}
		if strings.Contains(flag, "DUP") {
			m.Duplicates++
		}
		if inv.ApprovalTime != nil && inv.ApprovalTime.After(inv.CreatedAt) {
			latencySum += inv.ApprovalTime.Sub(inv.CreatedAt).Minutes()
			latencyN++
		}
	}
	if latencyN > 0 {
		m.AvgApprovalMinutes = latencySum / float64(latencyN)
	}
	return m
}
