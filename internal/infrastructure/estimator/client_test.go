package estimator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nutrilog/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func replyServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Len(t, req.Messages, 2)

		w.WriteHeader(status)
		if status != http.StatusOK {
			w.Write([]byte(`{"error":"boom"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}))
}

func newTestClient(url string) *Client {
	return NewClient(Config{APIKey: "test-key", BaseURL: url + "/", Model: "test-model"}, nil)
}

func TestEstimate_Success(t *testing.T) {
	server := replyServer(t, http.StatusOK, "```json\n"+
		`{"calories": 210, "protein": 12.5, "carbs": null, "fat": 9, "sodium": 0,`+
		` "servingSize": 150, "servingUnit": "g", "confidence": "medium"}`+"\n```")
	defer server.Close()

	client := newTestClient(server.URL)

	result, err := client.Estimate(context.Background(), &domain.LookupRequest{
		ProductName: "chicken curry",
		ServingSize: 150,
		ServingUnit: "g",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.DataKindEstimated, result.DataKind)
	assert.Equal(t, domain.ConfidenceMedium, result.Confidence)
	assert.Equal(t, domain.Some(210), result.Calories)
	assert.Equal(t, domain.Some(12.5), result.Protein)
	assert.False(t, result.Carbs.Present(), "null stays absent")
	assert.Equal(t, domain.Some(0), result.Sodium, "explicit zero is kept")
	assert.Equal(t, domain.Some(150), result.ResultServingSize)
	assert.Equal(t, "g", result.ResultServingUnit)
	assert.Equal(t, "Estimated (test-model)", result.SourceLabel)
	assert.NoError(t, result.Validate())
}

func TestEstimate_WithoutServingPair(t *testing.T) {
	server := replyServer(t, http.StatusOK, `{"calories": 95, "servingSize": 1, "servingUnit": null}`)
	defer server.Close()

	result, err := newTestClient(server.URL).Estimate(context.Background(), &domain.LookupRequest{ProductName: "apple"})

	require.NoError(t, err)
	assert.False(t, result.HasServing(), "a half-specified serving is dropped")
	assert.Equal(t, domain.ConfidenceLow, result.Confidence, "missing confidence defaults to low")
}

func TestEstimate_Errors(t *testing.T) {
	t.Run("missing product name", func(t *testing.T) {
		_, err := newTestClient("http://unused").Estimate(context.Background(), &domain.LookupRequest{})
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("missing API key", func(t *testing.T) {
		client := NewClient(Config{BaseURL: "http://unused", Model: "m"}, nil)
		_, err := client.Estimate(context.Background(), &domain.LookupRequest{ProductName: "rice"})
		assert.ErrorIs(t, err, domain.ErrProviderFailure)
	})

	t.Run("server error", func(t *testing.T) {
		server := replyServer(t, http.StatusInternalServerError, "")
		defer server.Close()

		_, err := newTestClient(server.URL).Estimate(context.Background(), &domain.LookupRequest{ProductName: "rice"})
		assert.ErrorIs(t, err, domain.ErrProviderFailure)
	})

	t.Run("rate limited", func(t *testing.T) {
		server := replyServer(t, http.StatusTooManyRequests, "")
		defer server.Close()

		_, err := newTestClient(server.URL).Estimate(context.Background(), &domain.LookupRequest{ProductName: "rice"})
		assert.ErrorIs(t, err, domain.ErrProviderFailure)
		assert.ErrorIs(t, err, domain.ErrRateLimited)
	})

	t.Run("reply without JSON", func(t *testing.T) {
		server := replyServer(t, http.StatusOK, "I am not sure about that food.")
		defer server.Close()

		_, err := newTestClient(server.URL).Estimate(context.Background(), &domain.LookupRequest{ProductName: "rice"})
		assert.ErrorIs(t, err, domain.ErrProviderFailure)
	})

	t.Run("context cancelled", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer server.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := newTestClient(server.URL).Estimate(ctx, &domain.LookupRequest{ProductName: "rice"})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestUserPrompt(t *testing.T) {
	prompt := userPrompt(&domain.LookupRequest{
		ProductName: "greek yogurt",
		Brand:       "Fage",
		ServingSize: 170,
		ServingUnit: "g",
	})
	assert.Equal(t, "Food: greek yogurt\nBrand: Fage\nServing: 170 g", prompt)
}
