package capability

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	herrors "hellosrv/internal/errors"
	"hellosrv/internal/metrics"
	"hellosrv/internal/session"
	"hellosrv/util"
)

// runGreet starts Greet.Handle on the server end of a pipe and returns
// the client end plus a channel carrying Handle's result.
func runGreet(ctx context.Context, g *Greet, stdout io.Writer, m *metrics.Collector) (net.Conn, <-chan error) {
	server, client := net.Pipe()
	sess := session.New(server, nil, stdout, util.NewLogger(0), m)
	done := make(chan error, 1)
	go func() {
		defer server.Close()
		done <- g.Handle(ctx, sess)
	}()
	return client, done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("Handle did not return")
		return nil
	}
}

func mustReadLine(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return line
}

func TestReply(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"alice", "hi alice!  anybody else there?"},
		{"", "hi !  anybody else there?"},
		{"Bob Smith", "hi Bob Smith!  anybody else there?"},
	}
	for _, tt := range tests {
		if got := Reply(tt.in); got != tt.want {
			t.Errorf("Reply(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGreet_PromptAndReplies(t *testing.T) {
	var stdout bytes.Buffer
	m := metrics.New()
	client, done := runGreet(context.Background(), &Greet{Prompt: "who is it?"}, &stdout, m)

	r := bufio.NewReader(client)
	if got := mustReadLine(t, r); got != "who is it?\n" {
		t.Fatalf("prompt = %q", got)
	}

	for _, name := range []string{"alice", "bob", "carol"} {
		io.WriteString(client, name+"\n") //nolint:errcheck
		want := "hi " + name + "!  anybody else there?\n"
		if got := mustReadLine(t, r); got != want {
			t.Errorf("reply = %q, want %q", got, want)
		}
	}
	client.Close()

	if err := waitDone(t, done); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	wantOut := "received:alice\nreceived:bob\nreceived:carol\nclient hung up\n"
	if stdout.String() != wantOut {
		t.Errorf("stdout = %q, want %q", stdout.String(), wantOut)
	}
	if m.LinesReceived() != 3 || m.RepliesSent() != 3 {
		t.Errorf("metrics lines=%d replies=%d, want 3/3", m.LinesReceived(), m.RepliesSent())
	}
	if m.TotalBytesOut() == 0 || m.TotalBytesIn() != int64(len("alice\nbob\ncarol\n")) {
		t.Errorf("bytes in=%d out=%d", m.TotalBytesIn(), m.TotalBytesOut())
	}
}

func TestGreet_EmptyLine(t *testing.T) {
	var stdout bytes.Buffer
	client, done := runGreet(context.Background(), &Greet{Prompt: "who is it?"}, &stdout, nil)

	r := bufio.NewReader(client)
	mustReadLine(t, r)
	io.WriteString(client, "\n") //nolint:errcheck
	if got := mustReadLine(t, r); got != "hi !  anybody else there?\n" {
		t.Errorf("reply = %q", got)
	}
	client.Close()

	if err := waitDone(t, done); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.HasPrefix(stdout.String(), "received:\n") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestGreet_CRLF(t *testing.T) {
	client, done := runGreet(context.Background(), &Greet{Prompt: "who is it?"}, io.Discard, nil)

	r := bufio.NewReader(client)
	mustReadLine(t, r)
	io.WriteString(client, "dave\r\n") //nolint:errcheck
	if got := mustReadLine(t, r); got != "hi dave!  anybody else there?\n" {
		t.Errorf("reply = %q", got)
	}
	client.Close()
	waitDone(t, done) //nolint:errcheck
}

func TestGreet_LoneCR(t *testing.T) {
	var stdout bytes.Buffer
	client, done := runGreet(context.Background(), &Greet{Prompt: "who is it?"}, &stdout, nil)

	r := bufio.NewReader(client)
	mustReadLine(t, r)
	go io.WriteString(client, "alice\rbob\n") //nolint:errcheck
	for _, name := range []string{"alice", "bob"} {
		want := "hi " + name + "!  anybody else there?\n"
		if got := mustReadLine(t, r); got != want {
			t.Errorf("reply = %q, want %q", got, want)
		}
	}
	client.Close()

	if err := waitDone(t, done); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if stdout.String() != "received:alice\nreceived:bob\nclient hung up\n" {
		t.Errorf("stdout = %q", stdout.String())
	}
}

// TestGreet_UnterminatedLastLine uses real TCP so the client can
// half-close and still read the reply to its final, newline-less line.
func TestGreet_UnterminatedLastLine(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	var stdout bytes.Buffer
	done := make(chan error, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			done <- err
			return
		}
		defer conn.Close()
		sess := session.New(conn, nil, &stdout, util.NewLogger(0), nil)
		done <- (&Greet{Prompt: "who is it?"}).Handle(context.Background(), sess)
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	io.WriteString(conn, "erin") //nolint:errcheck
	conn.(*net.TCPConn).CloseWrite()

	all, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "who is it?\nhi erin!  anybody else there?\n"
	if string(all) != want {
		t.Errorf("got %q, want %q", all, want)
	}
	if err := waitDone(t, done); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if stdout.String() != "received:erin\nclient hung up\n" {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestGreet_IdleTimeout(t *testing.T) {
	m := metrics.New()
	client, done := runGreet(context.Background(),
		&Greet{Prompt: "who is it?", IdleTimeout: 50 * time.Millisecond}, io.Discard, m)
	defer client.Close()

	mustReadLine(t, bufio.NewReader(client))

	err := waitDone(t, done)
	if !errors.Is(err, herrors.ErrIdleTimeout) {
		t.Fatalf("err = %v, want ErrIdleTimeout", err)
	}
	var ne *herrors.NetworkError
	if !errors.As(err, &ne) || ne.Op != "read" {
		t.Errorf("want read NetworkError, got %#v", err)
	}
	if m.ErrorCount() != 1 {
		t.Errorf("errors = %d, want 1", m.ErrorCount())
	}
}

func TestGreet_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client, done := runGreet(ctx, &Greet{Prompt: "who is it?"}, io.Discard, nil)
	defer client.Close()

	mustReadLine(t, bufio.NewReader(client))
	cancel()

	if err := waitDone(t, done); err != nil {
		t.Errorf("cancelled session should end cleanly, got %v", err)
	}
}

func TestGreet_WriteFailure(t *testing.T) {
	client, done := runGreet(context.Background(), &Greet{Prompt: "who is it?"}, io.Discard, nil)
	// Nobody reads the prompt.
	client.Close()

	err := waitDone(t, done)
	var ne *herrors.NetworkError
	if !errors.As(err, &ne) || ne.Op != "write" {
		t.Fatalf("want write NetworkError, got %v", err)
	}
}

func TestLineReader(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"lf", "a\nb\n", []string{"a", "b"}},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"lone cr", "a\rb\n", []string{"a", "b"}},
		{"cr then empty line", "a\r\n\nb", []string{"a", "", "b"}},
		{"cr cr", "a\r\rb", []string{"a", "", "b"}},
		{"mixed with unterminated tail", "a\nb\r\n\nlast", []string{"a", "b", "", "last"}},
		{"trailing cr", "a\r", []string{"a"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewLineReader(strings.NewReader(tt.input))
			var got []string
			for {
				line, err := r.ReadLine()
				if err == io.EOF {
					break
				}
				if err != nil {
					t.Fatal(err)
				}
				got = append(got, line)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Errorf("lines = %q, want %q", got, tt.want)
			}
		})
	}
}
