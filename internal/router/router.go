// Package router provides a heuristic query guardrail that screens incoming
// questions for obviously malicious intent before any retrieval work happens.
//
// This is advisory filtering, not a security boundary: false negatives are
// expected. Its purpose is to stop the cheap, well-known attack phrasings
// (prompt-injection preambles, destructive SQL or shell fragments, credential
// fishing) from ever reaching the embedding and answer backends.
package router

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ErrInvalidConfig indicates invalid router configuration.
var ErrInvalidConfig = errors.New("invalid router configuration")

// DefaultMaxLength bounds query length. Overly long queries are often
// prompt-injection attempts stuffing instructions into the context window.
const DefaultMaxLength = 2048

// DefaultPatterns is the built-in malicious-intent signature set.
var DefaultPatterns = []string{
	`ignore\s+previous\s+instructions`,
	`drop\s+table`,
	`truncate\s+table`,
	`rm\s+-rf`,
	`format\s+c:\\`,
	`delete\s+from`,
	`passwords?`,
	`api\s+keys?`,
	`system\s+prompt`,
	`powershell`,
	`malware`,
	`backdoor`,
	`virus`,
}

// Rejection reasons returned in Decision.Reason.
const (
	reasonEmpty     = "query is empty"
	reasonTooLong   = "query rejected: exceeds maximum allowed length"
	reasonMalicious = "query rejected: detected potentially malicious intent (contains disallowed instructions)"
	reasonAccepted  = "query accepted"
)

// Config holds router configuration.
type Config struct {
	// Enabled controls whether the orchestrator consults the router at all.
	Enabled bool `koanf:"enabled"`

	// MaxLength is the maximum accepted query length in characters,
	// measured after trimming. Default: DefaultMaxLength.
	MaxLength int `koanf:"max_length"`

	// Patterns are case-insensitive regular expressions that indicate
	// malicious intent. Empty means DefaultPatterns.
	Patterns []string `koanf:"patterns"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.MaxLength == 0 {
		c.MaxLength = DefaultMaxLength
	}
	if len(c.Patterns) == 0 {
		c.Patterns = DefaultPatterns
	}
}

// Decision is the outcome of inspecting a query. A rejection is a control
// decision, not an error.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

// Router inspects queries against a configured signature set. Stateless and
// safe for concurrent use once constructed.
type Router struct {
	maxLength int
	patterns  []*regexp.Regexp
}

// New compiles the configured pattern set. An unparseable pattern is a
// configuration error at construction, never at inspect time.
func New(cfg Config) (*Router, error) {
	cfg.ApplyDefaults()

	if cfg.MaxLength < 0 {
		return nil, fmt.Errorf("%w: max_length cannot be negative", ErrInvalidConfig)
	}

	patterns := make([]*regexp.Regexp, 0, len(cfg.Patterns))
	for _, pattern := range cfg.Patterns {
		compiled, err := regexp.Compile(`(?i)` + pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: pattern %q: %v", ErrInvalidConfig, pattern, err)
		}
		patterns = append(patterns, compiled)
	}

	return &Router{
		maxLength: cfg.MaxLength,
		patterns:  patterns,
	}, nil
}

// Inspect evaluates a query. Checks run in order with the first match
// winning: empty, too long, signature match, then accept.
func (r *Router) Inspect(query string) Decision {
	cleaned := strings.TrimSpace(query)
	if cleaned == "" {
		return Decision{Allowed: false, Reason: reasonEmpty}
	}

	// Length is measured in characters, not bytes, so multibyte queries
	// are not penalized for their encoding.
	if utf8.RuneCountInString(cleaned) > r.maxLength {
		return Decision{Allowed: false, Reason: reasonTooLong}
	}

	for _, pattern := range r.patterns {
		if pattern.MatchString(cleaned) {
			return Decision{Allowed: false, Reason: reasonMalicious}
		}
	}

	return Decision{Allowed: true, Reason: reasonAccepted}
}
