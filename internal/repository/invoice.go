package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/invoice-auditor/constants"
	"github.com/joseph-ayodele/invoice-auditor/internal/common"
	"github.com/joseph-ayodele/invoice-auditor/internal/entity"
)

// UpdateRouteRequest wraps parameters for a manual routing decision.
type UpdateRouteRequest struct {
	ID         uuid.UUID
	Stage      constants.ApprovalStage
	ReviewedBy string
	Timestamp  time.Time
}

type InvoiceRepository interface {
	Create(ctx context.Context, inv *entity.Invoice) (*entity.Invoice, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	List(ctx context.Context, limit int) ([]*entity.Invoice, error)
	ExistsByHash(ctx context.Context, hash string) (bool, error)
	ExistsByVendorAndInvoiceNumber(ctx context.Context, vendor, invoiceNumber string) (bool, error)
	UpdateRoute(ctx context.Context, req *UpdateRouteRequest) (*entity.Invoice, error)
}

type invoiceRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewInvoiceRepository(pool *pgxpool.Pool, logger *slog.Logger) InvoiceRepository {
	return &invoiceRepository{
		pool:   pool,
		logger: logger,
	}
}

const invoiceColumns = `
	id, vendor_name, invoice_number, invoice_date, currency, total_amount,
	line_items, confidence_score, compliance_score, risk_score, risk_level,
	reason_codes, routing_decision, status, processing_status, flag_reason,
	approval_stage, reviewed_by, approved_by, last_reviewed_by, approval_timestamp,
	document_hash, file_url, audited, ai_version, created_by,
	ai_structured_output, field_explanations, reprocessed_at, created_at, updated_at`

func (r *invoiceRepository) Create(ctx context.Context, inv *entity.Invoice) (*entity.Invoice, error) {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	now := time.Now().UTC()
	inv.CreatedAt = now
	inv.UpdatedAt = now

	err := r.insert(ctx, inv, inv.DocumentHash)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "invoices_document_hash_key" {
		// Concurrent ingest won the hash race. Keep the invoice anyway so the
		// manual reviewer sees both, just without the unique hash.
		r.logger.Warn("invoice hash collision on insert; retrying without hash",
			"invoice_id", inv.ID, "document_hash", inv.DocumentHash)
		inv.DocumentHash = ""
		err = r.insert(ctx, inv, "")
	}
	if err != nil {
		r.logger.Error("failed to create invoice", "invoice_id", inv.ID, "error", err)
		return nil, common.WrapError(err, "create invoice")
	}
	return inv, nil
}

func (r *invoiceRepository) insert(ctx context.Context, inv *entity.Invoice, hash string) error {
	lineItems, err := json.Marshal(inv.LineItems)
	if err != nil {
		return err
	}
	reasons, err := json.Marshal(inv.ReasonCodes)
	if err != nil {
		return err
	}
	explanations, err := json.Marshal(inv.Explanations)
	if err != nil {
		return err
	}

	var hashArg any
	if hash != "" {
		hashArg = hash
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO invoices (
			id, vendor_name, invoice_number, invoice_date, currency, total_amount,
			line_items, confidence_score, compliance_score, risk_score, risk_level,
			reason_codes, routing_decision, status, processing_status, flag_reason,
			approval_stage, document_hash, file_url, audited, ai_version, created_by,
			ai_structured_output, field_explanations, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22,
			$23, $24, $25, $26
		)`,
		inv.ID, inv.VendorName, inv.InvoiceNumber, inv.InvoiceDate, inv.Currency, inv.TotalAmount,
		lineItems, inv.Confidence, inv.ComplianceScore, inv.RiskScore, inv.RiskLevel,
		reasons, inv.RoutingDecision, inv.Status, inv.ProcessingStatus, inv.FlagReason,
		inv.ApprovalStage, hashArg, inv.FileURL, inv.Audited, inv.AIVersion, inv.CreatedBy,
		[]byte(inv.RawStructured), explanations, inv.CreatedAt, inv.UpdatedAt,
	)
	return err
}

func (r *invoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	inv, err := scanInvoice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NewAppError("NOT_FOUND", "invoice not found", common.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to get invoice", "invoice_id", id, "error", err)
		return nil, common.WrapError(err, "get invoice")
	}
	return inv, nil
}

func (r *invoiceRepository) List(ctx context.Context, limit int) ([]*entity.Invoice, error) {
	var limitArg any
	if limit > 0 {
		limitArg = limit
	}
	rows, err := r.pool.Query(ctx,
		`SELECT`+invoiceColumns+` FROM invoices ORDER BY created_at DESC LIMIT $1`, limitArg)
	if err != nil {
		r.logger.Error("failed to list invoices", "error", err)
		return nil, common.WrapError(err, "list invoices")
	}
	defer rows.Close()

	var out []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, common.WrapError(err, "scan invoice")
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *invoiceRepository) ExistsByHash(ctx context.Context, hash string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM invoices WHERE document_hash = $1)`, hash).Scan(&exists)
	if err != nil {
		r.logger.Error("failed to check document hash", "error", err)
		return false, common.WrapError(err, "check document hash")
	}
	return exists, nil
}

func (r *invoiceRepository) ExistsByVendorAndInvoiceNumber(ctx context.Context, vendor, invoiceNumber string) (bool, error) {
	if vendor == "" || invoiceNumber == "" {
		return false, nil
	}
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM invoices
			WHERE lower(vendor_name) = lower($1) AND lower(invoice_number) = lower($2)
		)`, vendor, invoiceNumber).Scan(&exists)
	if err != nil {
		r.logger.Error("failed to check vendor duplicate", "vendor", vendor, "error", err)
		return false, common.WrapError(err, "check vendor duplicate")
	}
	return exists, nil
}

func (r *invoiceRepository) UpdateRoute(ctx context.Context, req *UpdateRouteRequest) (*entity.Invoice, error) {
	ts := req.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	var approvalTS *time.Time
	switch req.Stage {
	case constants.StageApproved, constants.StageRejected, constants.StageReviewed:
		approvalTS = &ts
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE invoices SET
			approval_stage = $2,
			reviewed_by = $3,
			last_reviewed_by = $3,
			approval_timestamp = COALESCE($4, approval_timestamp),
			approved_by = CASE WHEN $2 = $5 THEN $3 ELSE approved_by END,
			audited = CASE WHEN $2 = $6 THEN TRUE ELSE audited END,
			updated_at = $7
		WHERE id = $1`,
		req.ID, req.Stage, req.ReviewedBy, approvalTS,
		constants.StageApproved, constants.StageAudited, ts,
	)
	if err != nil {
		r.logger.Error("failed to update route", "invoice_id", req.ID, "error", err)
		return nil, common.WrapError(err, "update route")
	}
	if tag.RowsAffected() == 0 {
		return nil, common.NewAppError("NOT_FOUND", "invoice not found", common.ErrNotFound)
	}
	return r.GetByID(ctx, req.ID)
}

// rowScanner covers pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*entity.Invoice, error) {
	var (
		inv          entity.Invoice
		hash         *string
		lineItems    []byte
		reasons      []byte
		explanations []byte
		rawOutput    []byte
	)
	err := row.Scan(
		&inv.ID, &inv.VendorName, &inv.InvoiceNumber, &inv.InvoiceDate, &inv.Currency, &inv.TotalAmount,
		&lineItems, &inv.Confidence, &inv.ComplianceScore, &inv.RiskScore, &inv.RiskLevel,
		&reasons, &inv.RoutingDecision, &inv.Status, &inv.ProcessingStatus, &inv.FlagReason,
		&inv.ApprovalStage, &inv.ReviewedBy, &inv.ApprovedBy, &inv.LastReviewedBy, &inv.ApprovalTime,
		&hash, &inv.FileURL, &inv.Audited, &inv.AIVersion, &inv.CreatedBy,
		&rawOutput, &explanations, &inv.ReprocessedAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if hash != nil {
		inv.DocumentHash = *hash
	}
	if len(lineItems) > 0 {
		if err := json.Unmarshal(lineItems, &inv.LineItems); err != nil {
			return nil, err
		}
	}
	if len(reasons) > 0 {
		if err := json.Unmarshal(reasons, &inv.ReasonCodes); err != nil {
			return nil, err
		}
	}
	if len(explanations) > 0 {
		if err := json.Unmarshal(explanations, &inv.Explanations); err != nil {
			return nil, err
		}
	}
	inv.RawStructured = json.RawMessage(rawOutput)
	return &inv, nil
}
