package core

import (
	"os"

	"golang.org/x/term"

	"hellosrv/config"
	"hellosrv/internal/capability"
	"hellosrv/internal/ipaddr"
	"hellosrv/internal/metrics"
	"hellosrv/internal/transport"
	"hellosrv/util"
)

// Build constructs the appropriate Mode from the given configuration.
// cfg must already be validated.
func Build(cfg *config.Config, logger *util.Logger, m *metrics.Collector) (Mode, error) {
	if cfg.IsClient() {
		return buildConnect(cfg, logger, m)
	}
	return buildListen(cfg, logger, m), nil
}

// ── mode builders ────────────────────────────────────────────────────

func buildListen(cfg *config.Config, logger *util.Logger, m *metrics.Collector) *ListenMode {
	mode := &ListenMode{
		Address: cfg.ListenAddr(),
		Capability: &capability.Greet{
			Prompt:      cfg.Prompt,
			IdleTimeout: cfg.Timeout,
		},
		Logger:  logger,
		Metrics: m,
	}
	if !cfg.NoIPLookup {
		mode.Resolver = ipaddr.NewResolver(cfg.IPService, cfg.IPTimeout, logger)
	}
	return mode
}

func buildConnect(cfg *config.Config, logger *util.Logger, m *metrics.Collector) (*ConnectMode, error) {
	address, err := util.ResolveAddr(cfg.Host, cfg.Port, cfg.NoDNS)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = config.DefaultConnTimeout
	}

	return &ConnectMode{
		Dialer:      &transport.TCPDialer{Timeout: timeout},
		Capability:  &capability.Relay{},
		Address:     address,
		Logger:      logger,
		Metrics:     m,
		Interactive: stdinIsTerminal(),
	}, nil
}

// stdinIsTerminal reports whether a person is typing the client's input.
func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
