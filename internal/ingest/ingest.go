package ingest

import (
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-auditor/constants"
)

// IngestRequest is one document handed to the pipeline.
type IngestRequest struct {
	Data     []byte
	Filename string
	MIMEType string
	Source   string // constants.SourceUpload or constants.SourceEmail
}

// IngestResult is the terminal outcome of one ingestion. Error is the
// human-readable failure description for FAILED results.
type IngestResult struct {
	Status          string              `json:"status"`
	InvoiceID       uuid.UUID           `json:"invoice_id,omitempty"`
	RoutingDecision string              `json:"routing_decision,omitempty"`
	RiskScore       int                 `json:"risk_score,omitempty"`
	RiskLevel       constants.RiskLevel `json:"risk_level,omitempty"`
	Error           string              `json:"error,omitempty"`
}

// PollResult aggregates one mailbox polling run.
type PollResult struct {
	Status           string   `json:"status"`
	MessagesScanned  int      `json:"messages_scanned"`
	AttachmentsFound int      `json:"attachments_found"`
	Ingested         int      `json:"ingested"`
	Duplicates       int      `json:"duplicates"`
	Failed           int      `json:"failed"`
	Errors           []string `json:"errors,omitempty"`
}
