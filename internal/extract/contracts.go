package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/joseph-ayodele/invoice-auditor/internal/entity"
)

// ExtractionResult is the normalized, flattened shape produced from the
// backend's value+confidence envelope. TotalAmount is nil when the backend
// could not produce a numeric total.
type ExtractionResult struct {
	VendorName    string            `json:"vendor_name"`
	InvoiceNumber string            `json:"invoice_number"`
	InvoiceDate   string            `json:"invoice_date"` // YYYY-MM-DD
	Currency      string            `json:"currency"`
	TotalAmount   *float64          `json:"total_amount,omitempty"`
	LineItems     []entity.LineItem `json:"line_items"`
	Confidence    float64           `json:"confidence_score"` // promoted overall_confidence
	Explanations  map[string]string `json:"explanations,omitempty"`
	RawStructured json.RawMessage   `json:"ai_raw_structured,omitempty"` // preserved envelope copy
}

// Generator is the raw extraction backend: one structured-generation call
// against one credential. A quota/rate-limit rejection is signaled by an
// error wrapping common.ErrRateLimited.
type Generator interface {
	Generate(ctx context.Context, apiKey, prompt string, doc []byte, mimeType string) (string, error)
}

// Extractor is the behavior the ingestion pipeline depends on.
type Extractor interface {
	Extract(ctx context.Context, doc []byte, mimeType string) (*ExtractionResult, error)
}

// Fingerprint computes the content hash used for duplicate detection and as
// the extraction cache key.
func Fingerprint(doc []byte) string {
	sum := sha256.Sum256(doc)
	return hex.EncodeToString(sum[:])
}
