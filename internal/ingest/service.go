package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-auditor/constants"
	"github.com/joseph-ayodele/invoice-auditor/internal/common"
	"github.com/joseph-ayodele/invoice-auditor/internal/entity"
	"github.com/joseph-ayodele/invoice-auditor/internal/extract"
	"github.com/joseph-ayodele/invoice-auditor/internal/mail"
	"github.com/joseph-ayodele/invoice-auditor/internal/repository"
	"github.com/joseph-ayodele/invoice-auditor/internal/scoring"
	"github.com/joseph-ayodele/invoice-auditor/internal/storage"
)

// Service runs the ingestion pipeline: validate, store, extract, score,
// route, persist. Every failure becomes a FAILED IngestResult; the pipeline
// never persists a partial invoice.
type Service struct {
	invoices  repository.InvoiceRepository
	objects   storage.ObjectStore
	extractor extract.Extractor
	health    *Health
	dial      mail.Dialer
	cfg       *common.Config
	logger    *slog.Logger

	now func() time.Time
}

func NewService(
	invoices repository.InvoiceRepository,
	objects storage.ObjectStore,
	extractor extract.Extractor,
	health *Health,
	dial mail.Dialer,
	cfg *common.Config,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		invoices:  invoices,
		objects:   objects,
		extractor: extractor,
		health:    health,
		dial:      dial,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Health exposes the poller health tracker.
func (s *Service) Health() *Health {
	return s.health
}

// Ingest processes one document end to end.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) IngestResult {
	rid := uuid.New().String()
	start := s.now()

	mimeType := constants.NormalizeMIME(req.MIMEType)
	s.logger.Info("ingest.start",
		"req_id", rid,
		"filename", req.Filename,
		"mime_type", mimeType,
		"source", req.Source,
		"bytes", len(req.Data),
	)

	if len(req.Data) == 0 {
		return s.failed(rid, "empty document")
	}
	if !constants.SupportedMIME(mimeType) {
		return s.failed(rid, fmt.Sprintf("unsupported file type: %s", req.MIMEType))
	}

	hash := extract.Fingerprint(req.Data)
	seen, err := s.invoices.ExistsByHash(ctx, hash)
	if err != nil {
		return s.failed(rid, fmt.Sprintf("duplicate check failed: %v", err))
	}
	if seen {
		s.logger.Info("ingest.duplicate", "req_id", rid, "document_hash", hash)
		return IngestResult{Status: constants.IngestDuplicate}
	}

	objectName := s.objectName(req.Source, req.Filename, start)
	fileURL, err := s.objects.Upload(ctx, req.Data, objectName, mimeType)
	if err != nil {
		return s.failed(rid, fmt.Sprintf("storage upload failed: %v", err))
	}

	fields, err := s.extractor.Extract(ctx, req.Data, mimeType)
	if err != nil {
		return s.failed(rid, fmt.Sprintf("extraction failed: %v", err))
	}

	isDup, err := s.invoices.ExistsByVendorAndInvoiceNumber(ctx, fields.VendorName, fields.InvoiceNumber)
	if err != nil {
		// The invoice still lands in the review flow where a human can
		// resolve a missed duplicate.
		s.logger.Warn("ingest.vendor_dup_check_failed", "req_id", rid, "error", err)
		isDup = false
	}

	compliance := scoring.Compliance(scoring.ComplianceInput{
		VendorName:    fields.VendorName,
		InvoiceNumber: fields.InvoiceNumber,
		InvoiceDate:   fields.InvoiceDate,
		Currency:      fields.Currency,
		TotalAmount:   fields.TotalAmount,
		LineItems:     fields.LineItems,
		IsDuplicate:   isDup,
	})
	risk := scoring.Risk(compliance, fields.Confidence)
	route := scoring.Route(isDup, fields.Confidence, risk.Score)

	stage := constants.StageUploaded
	status := constants.InvoiceStatusReviewRequired
	if route == constants.RouteReadyForFinMgr {
		stage = constants.StageReviewed
		status = constants.InvoiceStatusReady
	}

	var flagReason *string
	if len(risk.ReasonCodes) > 0 {
		fr := strings.Join(risk.ReasonCodes, ", ")
		flagReason = &fr
	}

	createdBy := constants.CreatedBySystem
	if req.Source == constants.SourceEmail {
		createdBy = constants.CreatedByMailBot
	}

	inv := &entity.Invoice{
		VendorName:       fields.VendorName,
		InvoiceNumber:    fields.InvoiceNumber,
		InvoiceDate:      fields.InvoiceDate,
		Currency:         fields.Currency,
		TotalAmount:      fields.TotalAmount,
		LineItems:        fields.LineItems,
		Confidence:       fields.Confidence,
		ComplianceScore:  compliance.Score,
		RiskScore:        risk.Score,
		RiskLevel:        risk.Level,
		ReasonCodes:      risk.ReasonCodes,
		RoutingDecision:  route,
		Status:           status,
		ProcessingStatus: constants.ProcessingCompleted,
		FlagReason:       flagReason,
		ApprovalStage:    stage,
		DocumentHash:     hash,
		FileURL:          fileURL,
		Audited:          false,
		AIVersion:        s.cfg.Ingest.AIVersion,
		CreatedBy:        createdBy,
		RawStructured:    fields.RawStructured,
		Explanations:     fields.Explanations,
	}

	created, err := s.invoices.Create(ctx, inv)
	if err != nil {
		return s.failed(rid, fmt.Sprintf("persist failed: %v", err))
	}

	s.health.RecordSuccess(s.now())
	s.logger.Info("ingest.ok",
		"req_id", rid,
		"invoice_id", created.ID,
		"vendor", created.VendorName,
		"risk_score", risk.Score,
		"risk_level", risk.Level,
		"routing_decision", route,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return IngestResult{
		Status:          constants.IngestSuccess,
		InvoiceID:       created.ID,
		RoutingDecision: route,
		RiskScore:       risk.Score,
		RiskLevel:       risk.Level,
	}
}

func (s *Service) failed(rid, msg string) IngestResult {
	s.logger.Error("ingest.failed", "req_id", rid, "error", msg)
	s.health.RecordFailure(msg)
	return IngestResult{Status: constants.IngestFailed, Error: msg}
}

func (s *Service) objectName(source, filename string, at time.Time) string {
	return fmt.Sprintf("%s/%s/%s",
		strings.ToLower(source), at.UTC().Format("20060102"), safeFilename(filename, at))
}

// safeFilename keeps alphanumerics plus dot, underscore, and hyphen, replaces
// everything else, and caps the length so object keys stay portable.
func safeFilename(name string, at time.Time) string {
	const maxLen = 160
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if len(out) > maxLen {
		out = out[:maxLen]
	}
	if out == "" {
		out = "invoice_" + at.UTC().Format("20060102_150405") + ".bin"
	}
	return out
}
