package core

import (
	"context"
	"fmt"
	"io"
	"os"

	"hellosrv/internal/capability"
	"hellosrv/internal/metrics"
	"hellosrv/internal/session"
	"hellosrv/internal/transport"
	"hellosrv/util"
)

// ConnectMode dials a greeting server and runs a capability on the
// resulting connection.
type ConnectMode struct {
	Dialer     transport.Dialer
	Capability capability.Capability
	Address    string
	Logger     *util.Logger
	Metrics    *metrics.Collector

	// Interactive prints a hang-up hint to Notice after connecting.
	Interactive bool

	// Stdin/Stdout/Notice default to os.Stdin/os.Stdout/os.Stderr when
	// nil.  Override in tests for deterministic I/O.
	Stdin  io.Reader
	Stdout io.Writer
	Notice io.Writer
}

func (m *ConnectMode) stdin() io.Reader {
	if m.Stdin != nil {
		return m.Stdin
	}
	return os.Stdin
}

func (m *ConnectMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

func (m *ConnectMode) notice() io.Writer {
	if m.Notice != nil {
		return m.Notice
	}
	return os.Stderr
}

// Run dials the server, creates a session, and hands it to the
// capability.  The transport is closed when Run returns.
func (m *ConnectMode) Run(ctx context.Context) error {
	defer m.Dialer.Close()

	m.Logger.Verbose("connecting to %s (tcp)", m.Address)

	conn, err := m.Dialer.Dial(ctx, "tcp", m.Address)
	if err != nil {
		return err
	}
	defer conn.Close()

	peer := conn.RemoteAddr().String()
	m.Logger.Info("connected to %s", peer)
	if m.Interactive {
		fmt.Fprintf(m.notice(), "connected to %s; type a line and press enter, Ctrl-D hangs up\n", peer)
	}
	m.Metrics.SessionOpened(peer)
	defer m.Metrics.SessionClosed()

	sess := session.New(conn, m.stdin(), m.stdout(), m.Logger, m.Metrics)
	err = m.Capability.Handle(ctx, sess)
	m.Logger.Debug("session stats: %s", m.Metrics.JSON())
	return err
}
