package util

import (
	"context"
	"io"
	"net"

	herrors "hellosrv/internal/errors"
)

// DefaultBufSize is the standard buffer size for network I/O (32 KiB).
const DefaultBufSize = 32 * 1024

// ByteCounter receives byte counts for traffic on a connection.
// *metrics.Collector satisfies it.
type ByteCounter interface {
	BytesReceived(n int64)
	BytesSent(n int64)
}

// CountingConn wraps a net.Conn and reports every successful read and
// write to Counter.
type CountingConn struct {
	net.Conn
	Counter ByteCounter
}

// NewCountingConn wraps conn.  A nil counter returns conn unchanged.
func NewCountingConn(conn net.Conn, c ByteCounter) net.Conn {
	if c == nil {
		return conn
	}
	return &CountingConn{Conn: conn, Counter: c}
}

func (c *CountingConn) Read(p []byte) (int, error) {
	n, err := c.Conn.Read(p)
	if n > 0 {
		c.Counter.BytesReceived(int64(n))
	}
	return n, err
}

func (c *CountingConn) Write(p []byte) (int, error) {
	n, err := c.Conn.Write(p)
	if n > 0 {
		c.Counter.BytesSent(int64(n))
	}
	return n, err
}

// CloseWrite half-closes the underlying TCP connection when possible.
func (c *CountingConn) CloseWrite() error {
	return closeWrite(c.Conn)
}

type halfCloser interface {
	CloseWrite() error
}

func closeWrite(conn net.Conn) error {
	if hc, ok := conn.(halfCloser); ok {
		return hc.CloseWrite()
	}
	return nil
}

// BidirectionalCopy shuffles data between a network connection and a
// local reader/writer pair (the terminal, in client mode) until the
// remote side closes or the context is cancelled.
//
// EOF on r only half-closes the connection so that replies still in
// flight are printed before the remote hangs up.  Once the copy ends the
// goroutine reading r is not waited for: a terminal read cannot be
// interrupted, and its next write fails on the closed conn.
func BidirectionalCopy(ctx context.Context, conn net.Conn, r io.Reader, w io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	recvErr := make(chan error, 1)
	sendErr := make(chan error, 1)

	// network → writer
	go func() {
		buf := GetBuf()
		defer PutBuf(buf)
		_, err := io.CopyBuffer(w, conn, *buf)
		recvErr <- err
		cancel()
	}()

	// reader → network
	go func() {
		buf := GetBuf()
		defer PutBuf(buf)
		_, err := io.CopyBuffer(conn, r, *buf)
		closeWrite(conn) //nolint:errcheck
		sendErr <- err
		if err != nil {
			cancel()
		}
	}()

	<-ctx.Done()
	conn.Close()

	// w is only written by the receiving side, so after this nothing
	// touches it.
	if err := <-recvErr; err != nil && !herrors.IsHangup(err) {
		return err
	}
	select {
	case err := <-sendErr:
		if err != nil && !herrors.IsHangup(err) {
			return err
		}
	default:
	}
	return nil
}
