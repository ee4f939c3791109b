package capability

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	herrors "hellosrv/internal/errors"
	"hellosrv/internal/session"
)

// Greet is the server side of the greeting protocol: send Prompt, then
// answer every line the peer sends with [Reply] until the peer hangs up.
type Greet struct {
	// Prompt is sent verbatim as the first line.
	Prompt string
	// IdleTimeout bounds the wait for each line.  Zero waits forever.
	IdleTimeout time.Duration
}

// Reply returns the greeting for a received line, without the newline.
func Reply(line string) string {
	return "hi " + line + "!  anybody else there?"
}

// Handle runs the prompt/reply loop.  Peer EOF ends it normally and
// context cancellation ends it with a nil error; any other I/O failure
// is returned as a *errors.NetworkError.
func (g *Greet) Handle(ctx context.Context, sess *session.Session) error {
	conn := sess.Conn
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := writeLine(conn, g.Prompt); err != nil {
		return g.fail(ctx, sess, "write", err)
	}

	r := NewLineReader(conn)
	for {
		if g.IdleTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(g.IdleTimeout)) //nolint:errcheck
		}
		line, err := r.ReadLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return g.fail(ctx, sess, "read", err)
		}
		sess.Metrics.LineReceived()
		fmt.Fprintf(sess.Stdout, "received:%s\n", line)

		if err := writeLine(conn, Reply(line)); err != nil {
			return g.fail(ctx, sess, "write", err)
		}
		sess.Metrics.ReplySent()
	}

	fmt.Fprintln(sess.Stdout, "client hung up")
	return nil
}

func (g *Greet) fail(ctx context.Context, sess *session.Session, op string, err error) error {
	if ctx.Err() != nil {
		sess.Logger.Verbose("session with %s interrupted", sess.Peer())
		return nil
	}
	if herrors.IsTimeout(err) {
		err = fmt.Errorf("%w after %s", herrors.ErrIdleTimeout, g.IdleTimeout)
	}
	sess.Metrics.RecordError(err.Error())
	return herrors.Wrap(op, sess.Peer(), err)
}

// LineReader splits a byte stream into lines ended by "\n", "\r" or
// "\r\n".  A "\r" returns its line at once; a "\n" directly after it is
// dropped on the next read, so an interactive peer is never left waiting.
type LineReader struct {
	r      *bufio.Reader
	skipLF bool
}

// NewLineReader returns a LineReader reading from r.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: bufio.NewReader(r)}
}

// ReadLine returns the next line without its terminator.  A final line
// that the peer sent without a terminator is still returned; the next
// call yields io.EOF.
func (lr *LineReader) ReadLine() (string, error) {
	var sb strings.Builder
	for {
		b, err := lr.r.ReadByte()
		if err != nil {
			if err == io.EOF && sb.Len() > 0 {
				return sb.String(), nil
			}
			return "", err
		}
		if lr.skipLF {
			lr.skipLF = false
			if b == '\n' {
				continue
			}
		}
		switch b {
		case '\r':
			lr.skipLF = true
			return sb.String(), nil
		case '\n':
			return sb.String(), nil
		}
		sb.WriteByte(b)
	}
}

func writeLine(w io.Writer, line string) error {
	_, err := io.WriteString(w, line+"\n")
	return err
}
