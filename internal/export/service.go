package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-auditor/internal/repository"
)

// Service is a tiny façade over the invoice repository that produces XLSX
// bytes for exports.
type Service struct {
	invoices repository.InvoiceRepository
	logger   *slog.Logger
}

func NewService(invoices repository.InvoiceRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{invoices: invoices, logger: logger}
}

// ExportInvoicesXLSX returns an XLSX workbook (as bytes) for the most recent
// invoices, newest first.
func (s *Service) ExportInvoicesXLSX(ctx context.Context, limit int) ([]byte, error) {
	start := time.Now()

	invs, err := s.invoices.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Invoices"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Vendor",
		"Invoice Number",
		"Invoice Date",
		"Currency",
		"Total Amount",
		"Confidence",
		"Risk Score",
		"Risk Level",
		"Routing Decision",
		"Approval Stage",
		"Flag Reason",
		"Created At",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, inv := range invs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, inv.VendorName)
		write(2, inv.InvoiceNumber)
		write(3, inv.InvoiceDate)
		write(4, inv.Currency)
		if inv.TotalAmount != nil {
			write(5, *inv.TotalAmount)
		} else {
			write(5, "")
		}
		write(6, inv.Confidence)
		write(7, inv.RiskScore)
		write(8, string(inv.RiskLevel))
		write(9, inv.RoutingDecision)
		write(10, string(inv.ApprovalStage))
		if inv.FlagReason != nil {
			write(11, truncate(*inv.FlagReason, 140))
		} else {
			write(11, "")
		}
		write(12, inv.CreatedAt.UTC().Format("2006-01-02 15:04:05"))

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 28) // vendor
	_ = f.SetColWidth(sheet, "B", "C", 16) // invoice number, date
	_ = f.SetColWidth(sheet, "D", "G", 12) // currency, amounts, scores
	_ = f.SetColWidth(sheet, "H", "J", 24) // level, routing, stage
	_ = f.SetColWidth(sheet, "K", "K", 48) // flag reason
	_ = f.SetColWidth(sheet, "L", "L", 20) // timestamp

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(invs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// truncate caps s at n runes, never splitting a multibyte rune.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n == 1 {
		return string(runes[:1])
	}
	return string(runes[:n-1]) + "…"
}
