package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-auditor/constants"
	"github.com/joseph-ayodele/invoice-auditor/internal/common"
	"github.com/joseph-ayodele/invoice-auditor/internal/entity"
	"github.com/joseph-ayodele/invoice-auditor/internal/extract"
	"github.com/joseph-ayodele/invoice-auditor/internal/mail"
	"github.com/joseph-ayodele/invoice-auditor/internal/repository"
)

// fakeInvoiceRepo keeps invoices in memory and mimics the duplicate lookups.
type fakeInvoiceRepo struct {
	invoices  []*entity.Invoice
	hashErr   error
	vendorErr error
	createErr error
}

func (r *fakeInvoiceRepo) Create(_ context.Context, inv *entity.Invoice) (*entity.Invoice, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	inv.CreatedAt = time.Now().UTC()
	r.invoices = append(r.invoices, inv)
	return inv, nil
}

func (r *fakeInvoiceRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Invoice, error) {
	for _, inv := range r.invoices {
		if inv.ID == id {
			return inv, nil
		}
	}
	return nil, common.NewAppError("NOT_FOUND", "invoice not found", common.ErrNotFound)
}

func (r *fakeInvoiceRepo) List(_ context.Context, _ int) ([]*entity.Invoice, error) {
	return r.invoices, nil
}

func (r *fakeInvoiceRepo) ExistsByHash(_ context.Context, hash string) (bool, error) {
	if r.hashErr != nil {
		return false, r.hashErr
	}
	for _, inv := range r.invoices {
		if inv.DocumentHash == hash {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeInvoiceRepo) ExistsByVendorAndInvoiceNumber(_ context.Context, vendor, number string) (bool, error) {
	if r.vendorErr != nil {
		return false, r.vendorErr
	}
	for _, inv := range r.invoices {
		if inv.VendorName == vendor && inv.InvoiceNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeInvoiceRepo) UpdateRoute(_ context.Context, _ *repository.UpdateRouteRequest) (*entity.Invoice, error) {
	return nil, errors.New("not implemented")
}

type fakeStore struct {
	uploads []string
	err     error
}

func (s *fakeStore) Upload(_ context.Context, _ []byte, objectName, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.uploads = append(s.uploads, objectName)
	return "http://store.local/invoices/" + objectName, nil
}

type fakeExtractor struct {
	result *extract.ExtractionResult
	err    error
	calls  int
}

func (e *fakeExtractor) Extract(_ context.Context, _ []byte, _ string) (*extract.ExtractionResult, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return e.result, nil
}

func f64(v float64) *float64 { return &v }

func cleanExtraction() *extract.ExtractionResult {
	return &extract.ExtractionResult{
		VendorName:    "Acme Corp",
		InvoiceNumber: "INV-1001",
		InvoiceDate:   "2026-03-15",
		Currency:      "USD",
		TotalAmount:   f64(250.0),
		LineItems: []entity.LineItem{
			{Description: "Widgets", Quantity: 10, UnitPrice: 25, TotalPrice: 250},
		},
		Confidence:    0.95,
		RawStructured: []byte(`{"vendor_name":{"value":"Acme Corp","confidence":0.98}}`),
	}
}

func newTestService(repo *fakeInvoiceRepo, store *fakeStore, ex *fakeExtractor, dial mail.Dialer) *Service {
	cfg := &common.Config{
		Ingest: common.IngestConfig{MaxMailMessages: 20, AIVersion: "gemini-flash-latest"},
	}
	logger := slog.New(slog.DiscardHandler)
	s := NewService(repo, store, ex, NewHealth(), dial, cfg, logger)
	s.now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestIngest_CleanInvoiceRoutedToFinance(t *testing.T) {
	repo := &fakeInvoiceRepo{}
	store := &fakeStore{}
	s := newTestService(repo, store, &fakeExtractor{result: cleanExtraction()}, nil)

	res := s.Ingest(context.Background(), IngestRequest{
		Data:     []byte("pdf-bytes"),
		Filename: "march.pdf",
		MIMEType: "application/pdf",
		Source:   constants.SourceUpload,
	})

	assert.Equal(t, constants.IngestSuccess, res.Status)
	assert.Equal(t, constants.RouteReadyForFinMgr, res.RoutingDecision)
	assert.Equal(t, constants.RiskLow, res.RiskLevel)

	require.Len(t, repo.invoices, 1)
	inv := repo.invoices[0]
	assert.Equal(t, constants.StageReviewed, inv.ApprovalStage)
	assert.Equal(t, constants.InvoiceStatusReady, inv.Status)
	assert.Equal(t, constants.ProcessingCompleted, inv.ProcessingStatus)
	assert.Equal(t, constants.CreatedBySystem, inv.CreatedBy)
	assert.Equal(t, "gemini-flash-latest", inv.AIVersion)
	assert.Equal(t, extract.Fingerprint([]byte("pdf-bytes")), inv.DocumentHash)
	assert.Nil(t, inv.FlagReason)
	assert.False(t, inv.Audited)

	require.Len(t, store.uploads, 1)
	assert.Equal(t, "upload/20260315/march.pdf", store.uploads[0])
	assert.Equal(t, "http://store.local/invoices/upload/20260315/march.pdf", inv.FileURL)
}

func TestIngest_LowConfidenceGoesToReview(t *testing.T) {
	ex := cleanExtraction()
	ex.Confidence = 0.40
	repo := &fakeInvoiceRepo{}
	s := newTestService(repo, &fakeStore{}, &fakeExtractor{result: ex}, nil)

	res := s.Ingest(context.Background(), IngestRequest{
		Data: []byte("pdf-bytes"), Filename: "a.pdf",
		MIMEType: "application/pdf", Source: constants.SourceUpload,
	})

	assert.Equal(t, constants.IngestSuccess, res.Status)
	assert.Equal(t, constants.RouteReviewQueue, res.RoutingDecision)

	inv := repo.invoices[0]
	assert.Equal(t, constants.StageUploaded, inv.ApprovalStage)
	assert.Equal(t, constants.InvoiceStatusReviewRequired, inv.Status)
	require.NotNil(t, inv.FlagReason)
	assert.Equal(t, "LOW_CONFIDENCE", *inv.FlagReason)
}

func TestIngest_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		req  IngestRequest
	}{
		{"empty document", IngestRequest{MIMEType: "application/pdf", Source: constants.SourceUpload}},
		{"unsupported mime", IngestRequest{Data: []byte("x"), MIMEType: "text/html", Source: constants.SourceUpload}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeInvoiceRepo{}
			store := &fakeStore{}
			s := newTestService(repo, store, &fakeExtractor{result: cleanExtraction()}, nil)

			res := s.Ingest(context.Background(), tt.req)

			assert.Equal(t, constants.IngestFailed, res.Status)
			assert.NotEmpty(t, res.Error)
			assert.Empty(t, repo.invoices)
			assert.Empty(t, store.uploads)
		})
	}
}

func TestIngest_MIMEParametersAccepted(t *testing.T) {
	repo := &fakeInvoiceRepo{}
	s := newTestService(repo, &fakeStore{}, &fakeExtractor{result: cleanExtraction()}, nil)

	res := s.Ingest(context.Background(), IngestRequest{
		Data: []byte("pdf-bytes"), Filename: "a.pdf",
		MIMEType: "Application/PDF; name=a.pdf", Source: constants.SourceUpload,
	})
	assert.Equal(t, constants.IngestSuccess, res.Status)
}

// Re-ingesting the same bytes is a terminal DUPLICATE with no storage write,
// no extraction call, and no second row.
func TestIngest_SameBytesTwiceIsDuplicate(t *testing.T) {
	repo := &fakeInvoiceRepo{}
	store := &fakeStore{}
	ex := &fakeExtractor{result: cleanExtraction()}
	s := newTestService(repo, store, ex, nil)

	req := IngestRequest{
		Data: []byte("pdf-bytes"), Filename: "a.pdf",
		MIMEType: "application/pdf", Source: constants.SourceUpload,
	}
	first := s.Ingest(context.Background(), req)
	second := s.Ingest(context.Background(), req)

	assert.Equal(t, constants.IngestSuccess, first.Status)
	assert.Equal(t, constants.IngestDuplicate, second.Status)
	assert.Len(t, repo.invoices, 1)
	assert.Len(t, store.uploads, 1)
	assert.Equal(t, 1, ex.calls)
}

// A vendor+invoice-number match on different bytes still persists, flagged
// and routed to review.
func TestIngest_VendorDuplicateFlaggedAndReviewed(t *testing.T) {
	repo := &fakeInvoiceRepo{}
	s := newTestService(repo, &fakeStore{}, &fakeExtractor{result: cleanExtraction()}, nil)

	first := s.Ingest(context.Background(), IngestRequest{
		Data: []byte("pdf-bytes-v1"), Filename: "a.pdf",
		MIMEType: "application/pdf", Source: constants.SourceUpload,
	})
	second := s.Ingest(context.Background(), IngestRequest{
		Data: []byte("pdf-bytes-v2"), Filename: "a-rescan.pdf",
		MIMEType: "application/pdf", Source: constants.SourceUpload,
	})

	assert.Equal(t, constants.IngestSuccess, first.Status)
	assert.Equal(t, constants.IngestSuccess, second.Status)
	assert.Equal(t, constants.RouteReviewQueue, second.RoutingDecision)

	require.Len(t, repo.invoices, 2)
	dup := repo.invoices[1]
	assert.Contains(t, dup.ReasonCodes, "DUP_VENDOR_INV_NO")
	assert.Equal(t, 65, dup.ComplianceScore)
	assert.Equal(t, 35, dup.RiskScore)
}

func TestIngest_ExtractionFailureDoesNotPersist(t *testing.T) {
	repo := &fakeInvoiceRepo{}
	store := &fakeStore{}
	s := newTestService(repo, store, &fakeExtractor{
		err: fmt.Errorf("%w: all retries exhausted", common.ErrExtraction),
	}, nil)

	res := s.Ingest(context.Background(), IngestRequest{
		Data: []byte("pdf-bytes"), Filename: "a.pdf",
		MIMEType: "application/pdf", Source: constants.SourceUpload,
	})

	assert.Equal(t, constants.IngestFailed, res.Status)
	assert.Contains(t, res.Error, "extraction failed")
	assert.Empty(t, repo.invoices)
	// The raw document stays in object storage for later reprocessing.
	assert.Len(t, store.uploads, 1)
}

func TestIngest_HashCheckErrorFails(t *testing.T) {
	repo := &fakeInvoiceRepo{hashErr: errors.New("connection refused")}
	s := newTestService(repo, &fakeStore{}, &fakeExtractor{result: cleanExtraction()}, nil)

	res := s.Ingest(context.Background(), IngestRequest{
		Data: []byte("pdf-bytes"), Filename: "a.pdf",
		MIMEType: "application/pdf", Source: constants.SourceUpload,
	})
	assert.Equal(t, constants.IngestFailed, res.Status)
}

// A failing vendor-duplicate lookup degrades to "not a duplicate" so the
// invoice still lands where a reviewer can see it.
func TestIngest_VendorDupCheckErrorDegrades(t *testing.T) {
	repo := &fakeInvoiceRepo{vendorErr: errors.New("connection refused")}
	s := newTestService(repo, &fakeStore{}, &fakeExtractor{result: cleanExtraction()}, nil)

	res := s.Ingest(context.Background(), IngestRequest{
		Data: []byte("pdf-bytes"), Filename: "a.pdf",
		MIMEType: "application/pdf", Source: constants.SourceUpload,
	})
	assert.Equal(t, constants.IngestSuccess, res.Status)
	assert.NotContains(t, repo.invoices[0].ReasonCodes, "DUP_VENDOR_INV_NO")
}

func TestIngest_EmailSourceProvenance(t *testing.T) {
	repo := &fakeInvoiceRepo{}
	store := &fakeStore{}
	s := newTestService(repo, store, &fakeExtractor{result: cleanExtraction()}, nil)

	res := s.Ingest(context.Background(), IngestRequest{
		Data: []byte("pdf-bytes"), Filename: "statement.pdf",
		MIMEType: "application/pdf", Source: constants.SourceEmail,
	})

	assert.Equal(t, constants.IngestSuccess, res.Status)
	assert.Equal(t, constants.CreatedByMailBot, repo.invoices[0].CreatedBy)
	assert.Equal(t, "email/20260315/statement.pdf", store.uploads[0])
}

// Every ingestion attempt lands in the health snapshot, not just mailbox polls.
func TestIngest_FailureRecordsHealth(t *testing.T) {
	s := newTestService(&fakeInvoiceRepo{}, &fakeStore{err: errors.New("bucket unavailable")},
		&fakeExtractor{result: cleanExtraction()}, nil)

	res := s.Ingest(context.Background(), IngestRequest{
		Data: []byte("pdf-bytes"), Filename: "a.pdf",
		MIMEType: "application/pdf", Source: constants.SourceUpload,
	})

	assert.Equal(t, constants.IngestFailed, res.Status)
	snap := s.Health().Snapshot()
	require.NotNil(t, snap.LastError)
	assert.Contains(t, *snap.LastError, "storage upload failed")
	assert.Equal(t, 1, snap.FailedCount)
	assert.Nil(t, snap.LastSuccess)
}

func TestIngest_ValidationFailureRecordsHealth(t *testing.T) {
	s := newTestService(&fakeInvoiceRepo{}, &fakeStore{}, &fakeExtractor{result: cleanExtraction()}, nil)

	s.Ingest(context.Background(), IngestRequest{
		Data: []byte("x"), MIMEType: "text/html", Source: constants.SourceUpload,
	})

	snap := s.Health().Snapshot()
	require.NotNil(t, snap.LastError)
	assert.Equal(t, 1, snap.FailedCount)
}

func TestIngest_SuccessRecordsHealth(t *testing.T) {
	s := newTestService(&fakeInvoiceRepo{}, &fakeStore{}, &fakeExtractor{result: cleanExtraction()}, nil)

	res := s.Ingest(context.Background(), IngestRequest{
		Data: []byte("pdf-bytes"), Filename: "a.pdf",
		MIMEType: "application/pdf", Source: constants.SourceUpload,
	})

	assert.Equal(t, constants.IngestSuccess, res.Status)
	require.NotNil(t, s.Health().Snapshot().LastSuccess)
}

func TestIngest_EndToEndScenarios(t *testing.T) {
	base := func() *extract.ExtractionResult {
		return &extract.ExtractionResult{
			VendorName:    "Acme",
			InvoiceNumber: "INV-7",
			InvoiceDate:   "2024-01-15",
			Currency:      "USD",
			TotalAmount:   f64(100.00),
			LineItems:     []entity.LineItem{{Description: "Service", TotalPrice: 100.00}},
			Confidence:    0.95,
		}
	}

	tests := []struct {
		name       string
		mutate     func(*extract.ExtractionResult)
		compliance int
		risk       int
		level      constants.RiskLevel
		route      string
		stage      constants.ApprovalStage
	}{
		{
			name:       "clean invoice",
			mutate:     func(*extract.ExtractionResult) {},
			compliance: 100, risk: 0, level: constants.RiskLow,
			route: constants.RouteReadyForFinMgr, stage: constants.StageReviewed,
		},
		{
			name: "line total mismatch alone does not force review",
			mutate: func(r *extract.ExtractionResult) {
				r.LineItems = []entity.LineItem{{Description: "Service", TotalPrice: 80.00}}
			},
			compliance: 80, risk: 20, level: constants.RiskLow,
			route: constants.RouteReadyForFinMgr, stage: constants.StageReviewed,
		},
		{
			name:       "low confidence forces review regardless of risk",
			mutate:     func(r *extract.ExtractionResult) { r.Confidence = 0.5 },
			compliance: 100, risk: 10, level: constants.RiskLow,
			route: constants.RouteReviewQueue, stage: constants.StageUploaded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := base()
			tt.mutate(ex)
			repo := &fakeInvoiceRepo{}
			s := newTestService(repo, &fakeStore{}, &fakeExtractor{result: ex}, nil)

			res := s.Ingest(context.Background(), IngestRequest{
				Data: []byte("pdf-" + tt.name), Filename: "a.pdf",
				MIMEType: "application/pdf", Source: constants.SourceUpload,
			})

			require.Equal(t, constants.IngestSuccess, res.Status)
			inv := repo.invoices[0]
			assert.Equal(t, tt.compliance, inv.ComplianceScore)
			assert.Equal(t, tt.risk, inv.RiskScore)
			assert.Equal(t, tt.level, inv.RiskLevel)
			assert.Equal(t, tt.route, inv.RoutingDecision)
			assert.Equal(t, tt.stage, inv.ApprovalStage)
		})
	}
}

func TestSafeFilename(t *testing.T) {
	at := time.Date(2026, 3, 15, 12, 30, 45, 0, time.UTC)
	tests := []struct {
		in   string
		want string
	}{
		{"march.pdf", "march.pdf"},
		{"Q1 report (final).pdf", "Q1_report__final_.pdf"},
		{"../../etc/passwd", ".._.._etc_passwd"},
		{"", "invoice_20260315_123045.bin"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, safeFilename(tt.in, at), "input %q", tt.in)
	}
}

func TestSafeFilename_CapsLength(t *testing.T) {
	long := ""
	for i := 0; i < 50; i++ {
		long += "abcdefgh"
	}
	out := safeFilename(long+".pdf", time.Now())
	assert.Len(t, out, 160)
}
