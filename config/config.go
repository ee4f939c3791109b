// Package config defines the runtime configuration for hellosrv.
package config

import (
	"fmt"
	"strings"
	"time"

	herrors "hellosrv/internal/errors"
	"hellosrv/util"
)

// Config holds every tuneable for a single hellosrv run.
type Config struct {
	// ── Server ───────────────────────────────────────────────────────
	BindHost  string // -b: listen host ("" = every interface)
	LocalPort int    // -p: listen port
	Prompt    string

	// ── Client ───────────────────────────────────────────────────────
	Host  string // positional: server to greet (enables client mode)
	Port  int    // positional: server port
	NoDNS bool

	// Timeout is the peer idle timeout in server mode and the connect
	// timeout in client mode.  Zero disables it on the server.
	Timeout time.Duration

	// ── Address discovery ────────────────────────────────────────────
	NoIPLookup bool
	IPService  string
	IPTimeout  time.Duration

	// ── Output ───────────────────────────────────────────────────────
	Verbose int
}

// Default returns a Config populated from defaults.go.
func Default() *Config {
	return &Config{
		LocalPort: DefaultPort,
		Prompt:    DefaultPrompt,
		Port:      DefaultPort,
		IPService: DefaultIPService,
		IPTimeout: DefaultIPTimeout,
	}
}

// IsClient reports whether the run dials a server instead of serving.
func (c *Config) IsClient() bool { return c.Host != "" }

// ListenAddr returns the host:port the server binds.
func (c *Config) ListenAddr() string {
	return util.FormatAddr(c.BindHost, c.LocalPort)
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.IsClient() {
		if err := checkPort("port", c.Port); err != nil {
			return err
		}
	} else {
		if err := checkPort("port", c.LocalPort); err != nil {
			return err
		}
		if c.Prompt == "" {
			return herrors.Invalid("prompt", nil, "must not be empty",
				fmt.Sprintf("omit --prompt to use %q", DefaultPrompt))
		}
		if strings.ContainsAny(c.Prompt, "\r\n") {
			return herrors.Invalid("prompt", c.Prompt, "must be a single line", "")
		}
		if !c.NoIPLookup {
			if !strings.HasPrefix(c.IPService, "http://") && !strings.HasPrefix(c.IPService, "https://") {
				return herrors.Invalid("ip-service", c.IPService, "must be an http(s) URL",
					"use --no-ip-lookup to skip the public address lookup")
			}
			if c.IPTimeout <= 0 {
				return herrors.Invalid("ip-timeout", c.IPTimeout, "must be positive", "")
			}
		}
	}

	if c.Timeout < 0 {
		return herrors.Invalid("timeout", c.Timeout, "must not be negative", "use 0 to wait forever")
	}
	return nil
}

func checkPort(field string, port int) error {
	if port < 1 || port > 65535 {
		return herrors.Invalid(field, port, "out of range 1-65535",
			fmt.Sprintf("the greeting server listens on %d by default", DefaultPort))
	}
	return nil
}
