package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-auditor/internal/common"
	"github.com/joseph-ayodele/invoice-auditor/internal/entity"
)

// GatewayConfig holds retry behavior for the extraction gateway.
type GatewayConfig struct {
	AttemptsPerKey int           // default 2
	RetryDelay     time.Duration // backoff between transient retries on the same key, default 2s
	CacheSize      int           // bounded result cache, default 1024
}

// Gateway wraps the extraction backend with caching, retry, and failover
// across the key pool, and normalizes the value+confidence envelope into a
// flat ExtractionResult.
type Gateway struct {
	gen    Generator
	keys   *KeyPool
	cache  *resultCache
	cfg    GatewayConfig
	logger *slog.Logger

	sleep func(time.Duration) // injectable for tests
}

func NewGateway(gen Generator, keys *KeyPool, cfg GatewayConfig, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AttemptsPerKey <= 0 {
		cfg.AttemptsPerKey = 2
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	return &Gateway{
		gen:    gen,
		keys:   keys,
		cache:  newResultCache(cfg.CacheSize),
		cfg:    cfg,
		logger: logger,
		sleep:  time.Sleep,
	}
}

// Extract returns structured fields for the document, reusing the cached
// result for a previously seen content hash. It fails with an error wrapping
// common.ErrExtraction only after every key and retry has been used up.
func (g *Gateway) Extract(ctx context.Context, doc []byte, mimeType string) (*ExtractionResult, error) {
	rid := uuid.New().String()
	hash := Fingerprint(doc)

	if res, ok := g.cache.Get(hash); ok {
		g.logger.Info("extract.gateway.cache_hit", "req_id", rid, "hash", hash)
		return res, nil
	}

	text, err := g.generateWithFailover(ctx, rid, doc, mimeType)
	if err != nil {
		return nil, err
	}

	res, err := flatten(text)
	if err != nil {
		g.logger.Error("extract.gateway.parse_error", "req_id", rid, "error", err, "raw", text)
		return nil, fmt.Errorf("%w: %v", common.ErrExtractionParse, err)
	}

	g.cache.Put(hash, res)
	g.logger.Info("extract.gateway.ok",
		"req_id", rid,
		"hash", hash,
		"vendor", res.VendorName,
		"confidence", res.Confidence,
		"line_items", len(res.LineItems),
	)
	return res, nil
}

// generateWithFailover iterates the key pool at most once per key. Transient
// errors retry on the same key after a short sleep; a rate-limit error marks
// the key exhausted and advances immediately. On first success the rotation
// index advances so the next call prefers the next key.
func (g *Gateway) generateWithFailover(ctx context.Context, rid string, doc []byte, mimeType string) (string, error) {
	start := time.Now()
	var lastErr error

	for try := 0; try < g.keys.Size(); try++ {
		idx, key, err := g.keys.Next()
		if err != nil {
			break
		}

		var text string
		var genErr error
		for attempt := 0; attempt < g.cfg.AttemptsPerKey; attempt++ {
			text, genErr = g.gen.Generate(ctx, key, ExtractionPrompt, doc, mimeType)
			if genErr == nil {
				break
			}
			if errors.Is(genErr, common.ErrRateLimited) {
				g.logger.Warn("extract.gateway.key_exhausted", "req_id", rid, "key_index", idx)
				g.keys.MarkExhausted(idx)
				break
			}
			g.logger.Warn("extract.gateway.attempt_failed",
				"req_id", rid, "key_index", idx, "attempt", attempt+1, "error", genErr)
			if attempt < g.cfg.AttemptsPerKey-1 {
				g.sleep(g.cfg.RetryDelay)
			}
		}

		if genErr == nil {
			g.keys.Advance()
			g.logger.Info("extract.gateway.generate_ok",
				"req_id", rid, "key_index", idx, "elapsed_ms", time.Since(start).Milliseconds())
			return text, nil
		}
		lastErr = genErr
		if !errors.Is(genErr, common.ErrRateLimited) {
			g.keys.Advance()
		}
	}

	g.logger.Error("extract.gateway.all_retries_exhausted",
		"req_id", rid, "error", lastErr, "elapsed_ms", time.Since(start).Milliseconds())
	if lastErr != nil {
		return "", fmt.Errorf("%w: all retries exhausted: %v", common.ErrExtraction, lastErr)
	}
	return "", fmt.Errorf("%w: %v", common.ErrExtraction, common.ErrAllKeysExhausted)
}

// envelope wire shapes. Values stay loosely typed; the backend occasionally
// emits numbers as strings and vice versa.
type fieldEnvelope struct {
	Value      any     `json:"value"`
	Confidence float64 `json:"confidence"`
}

type lineItemEnvelope struct {
	Description fieldEnvelope `json:"description"`
	Quantity    fieldEnvelope `json:"quantity"`
	UnitPrice   fieldEnvelope `json:"unit_price"`
	TotalPrice  fieldEnvelope `json:"total_price"`
}

type extractionEnvelope struct {
	VendorName        fieldEnvelope      `json:"vendor_name"`
	InvoiceNumber     fieldEnvelope      `json:"invoice_number"`
	InvoiceDate       fieldEnvelope      `json:"invoice_date"`
	Currency          fieldEnvelope      `json:"currency"`
	TotalAmount       fieldEnvelope      `json:"total_amount"`
	LineItems         []lineItemEnvelope `json:"line_items"`
	OverallConfidence float64            `json:"overall_confidence"`
	Explanations      map[string]string  `json:"explanations"`
}

// flatten parses the backend response (tolerating surrounding code-fence
// markers), validates the envelope, preserves a raw structured copy, and
// collapses every value+confidence pair to its bare value.
func flatten(text string) (*ExtractionResult, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(text, "```json", ""), "```", ""))
	raw := []byte(cleaned)

	if err := validateEnvelope(raw); err != nil {
		return nil, err
	}

	var env extractionEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	res := &ExtractionResult{
		VendorName:    asString(env.VendorName.Value),
		InvoiceNumber: asString(env.InvoiceNumber.Value),
		InvoiceDate:   asString(env.InvoiceDate.Value),
		Currency:      asString(env.Currency.Value),
		TotalAmount:   asFloat(env.TotalAmount.Value),
		Confidence:    env.OverallConfidence,
		Explanations:  env.Explanations,
		RawStructured: json.RawMessage(append([]byte(nil), raw...)),
	}
	for _, item := range env.LineItems {
		res.LineItems = append(res.LineItems, entity.LineItem{
			Description: asString(item.Description.Value),
			Quantity:    asFloatOrZero(item.Quantity.Value),
			UnitPrice:   asFloatOrZero(item.UnitPrice.Value),
			TotalPrice:  asFloatOrZero(item.TotalPrice.Value),
		})
	}
	return res, nil
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func asFloat(v any) *float64 {
	switch t := v.(type) {
	case float64:
		return &t
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return &f
		}
	}
	return nil
}

func asFloatOrZero(v any) float64 {
	if f := asFloat(v); f != nil {
		return *f
	}
	return 0
}
