package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces answerd environment variables.
const envPrefix = "ANSWERD_"

// maxConfigFileSize rejects oversized config files.
const maxConfigFileSize = 1024 * 1024 // 1MB

// Load loads configuration with precedence (highest to lowest):
//
//  1. Environment variables (ANSWERD_SERVER_PORT, ANSWERD_CHUNKING_SIZE, ...)
//  2. YAML config file (configPath, skipped when empty or missing)
//  3. Defaults from Default()
//
// Environment variables map section-first: the first underscore separates
// the section from the field, remaining underscores stay in the field name.
//
//	ANSWERD_SERVER_PORT           -> server.port
//	ANSWERD_ROUTER_MAX_LENGTH     -> router.max_length
//	ANSWERD_RETRIEVAL_USE_RERANKER -> retrieval.use_reranker
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			content, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
			if len(content) > maxConfigFileSize {
				return nil, fmt.Errorf("config file %s exceeds %d bytes", configPath, maxConfigFileSize)
			}
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", configPath, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", transformEnvKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// transformEnvKey maps ANSWERD_SECTION_FIELD_NAME to section.field_name.
func transformEnvKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}
