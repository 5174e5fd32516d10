package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-auditor/internal/common"
)

// Generate sends the prompt plus the inline document to generateContent and
// returns the first candidate's text. HTTP 429 and quota errors come back
// wrapping common.ErrRateLimited so the caller can rotate keys.
func (c *Client) Generate(ctx context.Context, apiKey, prompt string, doc []byte, mimeType string) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("gemini.generate.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"doc_bytes", len(doc),
		"mime_type", mimeType,
	)

	body := map[string]any{
		"contents": []map[string]any{
			{
				"parts": []map[string]any{
					{"text": prompt},
					{"inline_data": map[string]any{
						"mime_type": mimeType,
						"data":      base64.StdEncoding.EncodeToString(doc),
					}},
				},
			},
		},
		"generationConfig": map[string]any{
			"response_mime_type": "application/json",
		},
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent",
		strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model)
	raw, httpErr := c.post(ctx, endpoint, apiKey, body)
	if httpErr != nil {
		c.logger.Error("gemini.generate.http_error",
			"req_id", rid, "error", httpErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", httpErr
	}

	var gc struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &gc); err != nil {
		c.logger.Error("gemini.generate.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if len(gc.Candidates) == 0 || len(gc.Candidates[0].Content.Parts) == 0 {
		c.logger.Error("gemini.generate.no_candidates",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("no candidates in gemini response")
	}

	var sb strings.Builder
	for _, part := range gc.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}

	c.logger.Info("gemini.generate.ok",
		"req_id", rid,
		"text_len", sb.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return sb.String(), nil
}

func (c *Client) post(ctx context.Context, url, apiKey string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			c.logger.Warn("gemini response body close error", "error", err)
		}
	}(resp.Body)

	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusTooManyRequests || isQuotaError(buf.String()) {
			return nil, fmt.Errorf("%w: gemini status %d: %s", common.ErrRateLimited, resp.StatusCode, buf.String())
		}
		return nil, fmt.Errorf("gemini status %d: %s", resp.StatusCode, buf.String())
	}
	return buf.Bytes(), nil
}

func isQuotaError(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "resource_exhausted") || strings.Contains(lower, "quota")
}
