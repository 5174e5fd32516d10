package constants

// ApprovalStage is the canonical lifecycle stage for rows in invoices.
type ApprovalStage string

// Stable values (store these exact strings in DB).
const (
	StageUploaded ApprovalStage = "UPLOADED" // ingested, waiting for human triage
	StageReviewed ApprovalStage = "REVIEWED" // reviewed (or routed straight to finance)
	StageApproved ApprovalStage = "APPROVED" // finance manager approved; record is locked
	StageRejected ApprovalStage = "REJECTED" // finance manager rejected
	StageAudited  ApprovalStage = "AUDITED"  // auditor verified an approved invoice
)

// RiskLevel buckets a 0-100 risk score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Routing destinations for a freshly ingested invoice.
const (
	RouteReviewQueue    = "REVIEW_QUEUE"
	RouteReadyForFinMgr = "READY_FOR_FINANCE_MANAGER"
)

// Ingest outcome statuses.
const (
	IngestSuccess   = "SUCCESS"
	IngestDuplicate = "DUPLICATE"
	IngestFailed    = "FAILED"
	IngestPartial   = "PARTIAL" // mailbox polls only
)

// Invoice display status, derived from the routing decision.
const (
	InvoiceStatusReady          = "READY"
	InvoiceStatusReviewRequired = "REVIEW_REQUIRED"
)

// ProcessingCompleted is set once the pipeline has run end to end.
const ProcessingCompleted = "COMPLETED"

// Provenance values for the created_by column.
const (
	CreatedBySystem  = "SYSTEM"
	CreatedByMailBot = "MAIL_BOT"
)

// Ingestion sources.
const (
	SourceUpload = "UPLOAD"
	SourceEmail  = "EMAIL"
)
