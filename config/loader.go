package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFromEnv overlays HELLO_* environment variables onto cfg.  Only
// non-empty, well-formed values override.  Call it before flag parsing
// so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v, ok := os.LookupEnv("HELLO_BIND"); ok {
		cfg.BindHost = v
	}
	if v := envInt("HELLO_PORT"); v > 0 {
		cfg.LocalPort = v
		cfg.Port = v
	}
	if v := envInt("HELLO_TIMEOUT"); v > 0 {
		cfg.Timeout = secondsDuration(v)
	}
	if v := os.Getenv("HELLO_PROMPT"); v != "" {
		cfg.Prompt = v
	}
	if envBool("HELLO_NO_DNS") {
		cfg.NoDNS = true
	}

	// Address discovery
	if envBool("HELLO_NO_IP_LOOKUP") {
		cfg.NoIPLookup = true
	}
	if v := os.Getenv("HELLO_IP_SERVICE"); v != "" {
		cfg.IPService = v
	}

	// Output
	if v := envInt("HELLO_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

func secondsDuration(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}
