// Package answer provides answer synthesis against an extractive QA HTTP
// endpoint: given a question and an assembled context, the backend returns
// the answer span it finds in that context.
package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrAnswerFailed indicates answer generation failure.
	ErrAnswerFailed = errors.New("answer generation failed")
)

// DefaultTimeout bounds a single answer call.
const DefaultTimeout = 30 * time.Second

// Config holds configuration for the answer service.
type Config struct {
	// BaseURL is the QA endpoint. Required.
	BaseURL string `koanf:"base_url"`

	// Model is the QA model identifier.
	Model string `koanf:"model"`

	// APIKey is sent as a bearer token when set.
	APIKey string `koanf:"api_key"`

	// Timeout bounds each answer call. Default: DefaultTimeout.
	Timeout time.Duration `koanf:"timeout"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Model == "" {
		c.Model = "deepset/roberta-base-squad2"
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}
	return nil
}

// Answerer synthesizes an answer from a question and retrieved context.
type Answerer interface {
	Answer(ctx context.Context, question, contextText string) (string, error)
}

// Service calls the QA backend. Safe for concurrent use.
type Service struct {
	config Config
	client *http.Client
}

// NewService creates a new answer service with the given configuration.
func NewService(config Config) (*Service, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &Service{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}, nil
}

// qaRequest is the request body for the QA endpoint.
type qaRequest struct {
	Inputs qaInputs `json:"inputs"`
}

type qaInputs struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

// qaResponse is the response body from the QA endpoint.
type qaResponse struct {
	Answer string `json:"answer"`
}

// Answer asks the backend for the answer span within the supplied context.
func (s *Service) Answer(ctx context.Context, question, contextText string) (string, error) {
	body, err := json.Marshal(qaRequest{Inputs: qaInputs{Question: question, Context: contextText}})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if s.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAnswerFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: status %d: %s", ErrAnswerFailed, resp.StatusCode, string(respBody))
	}

	var qa qaResponse
	if err := json.NewDecoder(resp.Body).Decode(&qa); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if qa.Answer == "" {
		return "", fmt.Errorf("%w: backend returned no answer", ErrAnswerFailed)
	}

	return qa.Answer, nil
}
