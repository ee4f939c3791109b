package core

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"sync/atomic"

	"hellosrv/internal/capability"
	herrors "hellosrv/internal/errors"
	"hellosrv/internal/ipaddr"
	"hellosrv/internal/metrics"
	"hellosrv/internal/session"
	"hellosrv/util"
)

// PublicResolver looks up the address the internet sees for this host.
type PublicResolver interface {
	GlobalIP(ctx context.Context) (string, error)
}

// ListenMode serves exactly one peer: it binds Address, accepts a single
// connection, closes the listener, and runs the capability on that
// connection.  A ListenMode can only be run once.
type ListenMode struct {
	Address    string // "host:port"; empty host binds every interface
	Capability capability.Capability
	Resolver   PublicResolver // nil skips the public address line
	Logger     *util.Logger
	Metrics    *metrics.Collector

	// Stdout defaults to os.Stdout when nil.
	Stdout io.Writer

	// Ready, when set, receives the bound address once the listener is
	// open.  It must be buffered or drained.
	Ready chan<- net.Addr

	served atomic.Bool
}

func (m *ListenMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

// Run announces the host's addresses, waits for one peer, and serves
// it.  Cancelling ctx while waiting returns nil.
func (m *ListenMode) Run(ctx context.Context) error {
	if !m.served.CompareAndSwap(false, true) {
		return herrors.ErrAlreadyServed
	}
	out := m.stdout()

	m.announce(ctx, out)

	ln, err := net.Listen("tcp", m.Address)
	if err != nil {
		return herrors.Wrap("listen", m.Address, err)
	}
	defer ln.Close()

	m.Logger.Info("listening on %s (tcp)", ln.Addr())
	fmt.Fprintf(out, "waiting for someone to connect on %s...\n", ln.Addr())
	if m.Ready != nil {
		m.Ready <- ln.Addr()
	}

	stop := context.AfterFunc(ctx, func() { ln.Close() })
	conn, err := ln.Accept()
	stop()
	if err != nil {
		if ctx.Err() != nil {
			m.Logger.Verbose("stopped waiting: %v", context.Cause(ctx))
			return nil
		}
		return herrors.Wrap("accept", ln.Addr().String(), err)
	}
	defer conn.Close()

	// Only one peer is ever served; later dials are refused.
	ln.Close()

	peer := conn.RemoteAddr().String()
	fmt.Fprintf(out, "someone connected (%s)\n", peer)
	m.Metrics.SessionOpened(peer)
	defer m.Metrics.SessionClosed()

	sess := session.New(conn, nil, out, m.Logger, m.Metrics)
	err = m.Capability.Handle(ctx, sess)
	m.Logger.Info("session with %s ended", peer)
	if m.Logger.Enabled(util.LogDebug) {
		m.Logger.Debug("session stats: %s", m.Metrics.JSON())
	}
	return err
}

// announce prints where peers can reach this host.  Lookup failures
// are warnings; the line then reads "unknown".
func (m *ListenMode) announce(ctx context.Context, out io.Writer) {
	local := "unknown"
	if ip, err := ipaddr.LocalIP(); err != nil {
		m.Logger.Warn("local address: %v", err)
	} else {
		local = ip.String()
	}
	fmt.Fprintf(out, "address inside the current network : %s\n", local)

	if m.Resolver == nil {
		return
	}
	global := "unknown"
	if ip, err := m.Resolver.GlobalIP(ctx); err != nil {
		m.Logger.Warn("public address: %v", err)
	} else {
		global = ip
	}
	fmt.Fprintf(out, "address outside the current network: %s\n", global)
}
