package errors

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"testing"
)

func TestNetworkError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  NetworkError
		want string
	}{
		{
			name: "eof",
			err:  NetworkError{Op: "accept", Addr: ":4242", Err: io.EOF},
			want: "accept :4242: EOF",
		},
		{
			name: "bind",
			err:  NetworkError{Op: "listen", Addr: ":4242", Err: fmt.Errorf("address already in use")},
			want: "listen :4242: address already in use",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNetworkError_Unwrap(t *testing.T) {
	err := &NetworkError{Op: "read", Addr: "x", Err: io.EOF}
	if !errors.Is(err, io.EOF) {
		t.Error("should unwrap to io.EOF")
	}
}

func TestConfigError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  *ConfigError
		want string
	}{
		{
			name: "with value and hint",
			err:  Invalid("port", 99999, "out of range 1-65535", "use a port between 1 and 65535"),
			want: "config: --port=99999: out of range 1-65535\n  hint: use a port between 1 and 65535",
		},
		{
			name: "missing value no hint",
			err:  &ConfigError{Field: "prompt", Message: "must not be empty"},
			want: "config: --prompt: must not be empty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	inner := fmt.Errorf("connection refused")
	err := Wrap("dial", "10.0.0.1:4242", inner)

	if err.Op != "dial" || err.Addr != "10.0.0.1:4242" {
		t.Errorf("wrong fields: Op=%q Addr=%q", err.Op, err.Addr)
	}
	if !errors.Is(err, inner) {
		t.Error("should unwrap to inner error")
	}
}

func TestIsHangup(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"eof", io.EOF, true},
		{"wrapped eof", fmt.Errorf("read: %w", io.EOF), true},
		{"closed", &net.OpError{Op: "read", Err: net.ErrClosed}, true},
		{"other", fmt.Errorf("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsHangup(tt.err); got != tt.want {
				t.Errorf("IsHangup(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsTimeout(t *testing.T) {
	if !IsTimeout(Wrap("read", "x", os.ErrDeadlineExceeded)) {
		t.Error("deadline exceeded should be a timeout")
	}
	if !IsTimeout(ErrIdleTimeout) {
		t.Error("ErrIdleTimeout should be a timeout")
	}
	if IsTimeout(io.EOF) {
		t.Error("EOF is not a timeout")
	}
}

func TestSentinels(t *testing.T) {
	sentinels := []error{ErrIdleTimeout, ErrNoAddress, ErrLookupFailed, ErrAlreadyServed}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel %d and %d should not match", i, j)
			}
		}
	}
}
