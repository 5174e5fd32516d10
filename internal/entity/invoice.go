package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-auditor/constants"
)

// LineItem is one row of an invoice's item table.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
}

// Invoice is the persisted invoice record for data transfer between layers.
type Invoice struct {
	ID               uuid.UUID               `json:"id"`
	VendorName       string                  `json:"vendor_name"`
	InvoiceNumber    string                  `json:"invoice_number"`
	InvoiceDate      string                  `json:"invoice_date"` // YYYY-MM-DD
	Currency         string                  `json:"currency"`
	TotalAmount      *float64                `json:"total_amount,omitempty"`
	LineItems        []LineItem              `json:"line_items"`
	Confidence       float64                 `json:"confidence_score"`
	ComplianceScore  int                     `json:"compliance_score"`
	RiskScore        int                     `json:"risk_score"`
	RiskLevel        constants.RiskLevel     `json:"risk_level"`
	ReasonCodes      []string                `json:"reason_codes"`
	RoutingDecision  string                  `json:"routing_decision"`
	Status           string                  `json:"status"`
	ProcessingStatus string                  `json:"processing_status"`
	FlagReason       *string                 `json:"flag_reason,omitempty"`
	ApprovalStage    constants.ApprovalStage `json:"approval_stage"`
	ReviewedBy       *string                 `json:"reviewed_by,omitempty"`
	ApprovedBy       *string                 `json:"approved_by,omitempty"`
	LastReviewedBy   *string                 `json:"last_reviewed_by,omitempty"`
	ApprovalTime     *time.Time              `json:"approval_timestamp,omitempty"`
	DocumentHash     string                  `json:"document_hash"`
	FileURL          string                  `json:"file_url"`
	Audited          bool                    `json:"audited"`
	AIVersion        string                  `json:"ai_version"`
	CreatedBy        string                  `json:"created_by"`
	RawStructured    json.RawMessage         `json:"ai_structured_output,omitempty"`
	Explanations     map[string]string       `json:"ai_explanations,omitempty"`
	ReprocessedAt    *time.Time              `json:"reprocessed_at,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}
