package answer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewService(t *testing.T) {
	_, err := NewService(Config{})
	require.ErrorIs(t, err, ErrInvalidConfig)

	svc, err := NewService(Config{BaseURL: "http://localhost:8080"})
	require.NoError(t, err)
	assert.Equal(t, "deepset/roberta-base-squad2", svc.config.Model)
}

func TestAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req qaRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "what is the capital", req.Inputs.Question)
		assert.Contains(t, req.Inputs.Context, "Paris")

		_, _ = w.Write([]byte(`{"answer": "Paris", "score": 0.97}`))
	}))
	defer server.Close()

	svc, err := NewService(Config{BaseURL: server.URL})
	require.NoError(t, err)

	got, err := svc.Answer(context.Background(), "what is the capital", "The capital of France is Paris.")
	require.NoError(t, err)
	assert.Equal(t, "Paris", got)
}

func TestAnswerBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	svc, err := NewService(Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = svc.Answer(context.Background(), "question", "context")
	require.ErrorIs(t, err, ErrAnswerFailed)
}

func TestAnswerEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	svc, err := NewService(Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = svc.Answer(context.Background(), "question", "context")
	require.ErrorIs(t, err, ErrAnswerFailed)
}
