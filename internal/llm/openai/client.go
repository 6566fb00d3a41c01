package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/htxdata/tdhca-extractor/internal/common"
	"github.com/htxdata/tdhca-extractor/internal/llm"
)

// ExtractFields implements llm.FieldExtractor using text-only chat/completions
// with a strict JSON response. A non-JSON or schema-violating response is "no
// extraction" for every field: the caller gets an error and degrades to
// pattern-only resolution.
func (c *Client) ExtractFields(ctx context.Context, req llm.ExtractRequest) (llm.ApplicationFields, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	excerpt := req.ExcerptBytes
	if excerpt <= 0 {
		excerpt = c.cfg.ExcerptBytes
	}

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"doc_id", req.DocID,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(req.Text),
		"excerpt_bytes", excerpt,
	)

	schema := llm.BuildApplicationJSONSchema()
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt()},
			{"role": "user", "content": llm.BuildUserPrompt(req.DocID, req.Text, excerpt) +
				"\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.postWithRetry(ctx, rid, endpoint, body)
	if err != nil {
		c.log.Error("llm.extract.http_error",
			"req_id", rid, "doc_id", req.DocID, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ApplicationFields{}, nil, common.WrapError(common.ErrServiceUnavailable, err.Error())
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ApplicationFields{}, raw, fmt.Errorf("decode completions response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.extract.no_choices",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ApplicationFields{}, raw, fmt.Errorf("no choices in completions response")
	}
	rawContent := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))

	// Sanitize first (unknown keys, missing nulls, numeric coercion), then
	// validate strictly. Validation failures are permanent, never retried.
	cleaned, dropped, sErr := llm.NormalizeAndSanitizeJSON(rawContent, c.log)
	if sErr != nil {
		c.log.Error("llm.extract.sanitize_failed",
			"req_id", rid, "error", sErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ApplicationFields{}, rawContent, fmt.Errorf("sanitize response: %w", sErr)
	}
	if len(dropped) > 0 {
		c.log.Warn("llm.extract.sanitize_applied", "req_id", rid, "dropped", dropped)
	}
	if err := llm.ValidateJSONAgainstSchema(schema, cleaned); err != nil {
		c.log.Error("llm.extract.schema_validation_failed",
			"req_id", rid, "error", err, "content", string(rawContent),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ApplicationFields{}, rawContent, fmt.Errorf("schema validation failed: %w", err)
	}

	var out llm.ApplicationFields
	if err := json.Unmarshal(cleaned, &out); err != nil {
		c.log.Error("llm.extract.unmarshal_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ApplicationFields{}, cleaned, fmt.Errorf("unmarshal fields: %w", err)
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"doc_id", req.DocID,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, cleaned, nil
}

// postWithRetry retries transient failures (transport errors, 429, 5xx) with
// doubling backoff, bounded by cfg.MaxRetries.
func (c *Client) postWithRetry(ctx context.Context, rid, url string, body map[string]any) ([]byte, error) {
	var lastErr error
	delay := c.cfg.RetryBackoff
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			c.log.Warn("llm.http.retry", "req_id", rid, "attempt", attempt, "delay_ms", delay.Milliseconds(), "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		raw, status, err := c.post(ctx, url, body)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !retryableStatus(status) || ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// retryableStatus: 0 is a transport failure, which is worth another try.
func retryableStatus(status int) bool {
	return status == 0 || status == http.StatusTooManyRequests || status >= 500
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, int, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("model service http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			c.log.Warn("llm.http.response_body_close_error", "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, fmt.Errorf("model service status %d: %s", resp.StatusCode, string(raw))
	}
	return raw, resp.StatusCode, nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
