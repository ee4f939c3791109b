// Package session represents a single connection lifecycle, binding a
// network connection with console I/O, the logger, and the run's
// metrics.
//
// Capabilities never reach for os.Stdin/os.Stdout themselves; they use
// the session's endpoints, so tests can substitute buffers.
package session

import (
	"io"
	"net"

	"hellosrv/internal/metrics"
	"hellosrv/util"
)

// Session encapsulates the runtime context for a single connection.
type Session struct {
	Conn    net.Conn
	Stdin   io.Reader // local input (client mode)
	Stdout  io.Writer // console lines, not the logger
	Logger  *util.Logger
	Metrics *metrics.Collector // may be nil
}

// New creates a Session bound to the given connection and I/O pair.
// When m is non-nil the connection's traffic is counted into it.
func New(conn net.Conn, stdin io.Reader, stdout io.Writer, logger *util.Logger, m *metrics.Collector) *Session {
	var counter util.ByteCounter
	if m != nil {
		counter = m
	}
	return &Session{
		Conn:    util.NewCountingConn(conn, counter),
		Stdin:   stdin,
		Stdout:  stdout,
		Logger:  logger,
		Metrics: m,
	}
}

// Peer returns the remote address as a string.
func (s *Session) Peer() string {
	if addr := s.Conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return "unknown"
}
