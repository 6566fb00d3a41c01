package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/htxdata/tdhca-extractor/internal/common"
	"github.com/htxdata/tdhca-extractor/internal/llm"
)

func completionResponse(content string) string {
	msg := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	b, _ := json.Marshal(msg)
	return string(b)
}

func testClient(baseURL string, maxRetries int) *Client {
	return NewClient(Config{
		APIKey:       "test-key",
		BaseURL:      baseURL,
		Model:        "gpt-4o-mini",
		MaxRetries:   maxRetries,
		RetryBackoff: time.Millisecond,
		Timeout:      5 * time.Second,
	}, nil)
}

func TestExtractFieldsParsesContent(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		fmt.Fprint(w, completionResponse(`{
			"application_number":"24001",
			"project_name":"Lakeside Manor",
			"street_address":null,
			"city":"Baytown",
			"county":"Harris",
			"zip_code":"77520",
			"total_units":48,
			"developer_name":null,
			"application_date":"2023-03-01",
			"total_development_cost":"12500000.00",
			"credit_amount_requested":null,
			"total_score":118
		}`))
	}))
	defer srv.Close()

	fields, raw, err := testClient(srv.URL, 0).ExtractFields(context.Background(), llm.ExtractRequest{
		DocID: "app-24001.pdf",
		Text:  "application text",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotBody["model"])

	require.NotNil(t, fields.County)
	assert.Equal(t, "Harris", *fields.County)
	require.NotNil(t, fields.TotalUnits)
	assert.Equal(t, 48, *fields.TotalUnits)
	assert.Nil(t, fields.StreetAddress)
	assert.Nil(t, fields.DeveloperName)

	cands := fields.Candidates(0.70)
	assert.Len(t, cands, 9)
}

func TestExtractFieldsNonJSONContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, completionResponse("I was unable to find the fields."))
	}))
	defer srv.Close()

	_, _, err := testClient(srv.URL, 0).ExtractFields(context.Background(), llm.ExtractRequest{DocID: "d", Text: "t"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrServiceUnavailable))
}

func TestExtractFieldsRetriesTransientFailures(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) == 1 {
			http.Error(w, "upstream overload", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, completionResponse(`{"county":"Harris"}`))
	}))
	defer srv.Close()

	fields, _, err := testClient(srv.URL, 2).ExtractFields(context.Background(), llm.ExtractRequest{DocID: "d", Text: "t"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), attempts.Load())
	require.NotNil(t, fields.County)
	assert.Equal(t, "Harris", *fields.County)
}

func TestExtractFieldsExhaustedRetries(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		http.Error(w, "upstream overload", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, _, err := testClient(srv.URL, 2).ExtractFields(context.Background(), llm.ExtractRequest{DocID: "d", Text: "t"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrServiceUnavailable))
	assert.Equal(t, int32(3), attempts.Load())
}

func TestExtractFieldsClientErrorNotRetried(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, _, err := testClient(srv.URL, 3).ExtractFields(context.Background(), llm.ExtractRequest{DocID: "d", Text: "t"})
	require.Error(t, err)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestExtractFieldsSchemaViolationNotRetried(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		fmt.Fprint(w, completionResponse(`{"total_units":-5}`))
	}))
	defer srv.Close()

	_, _, err := testClient(srv.URL, 3).ExtractFields(context.Background(), llm.ExtractRequest{DocID: "d", Text: "t"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation failed")
	assert.Equal(t, int32(1), attempts.Load())
}

func TestExtractFieldsNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	_, _, err := testClient(srv.URL, 0).ExtractFields(context.Background(), llm.ExtractRequest{DocID: "d", Text: "t"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestExtractFieldsContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream overload", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := testClient(srv.URL, 3).ExtractFields(ctx, llm.ExtractRequest{DocID: "d", Text: "t"})
	require.Error(t, err)
}
