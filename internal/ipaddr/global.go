package ipaddr

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	herrors "hellosrv/internal/errors"
	"hellosrv/internal/retry"
	"hellosrv/util"
)

// maxBody caps how much of an unexpected response ends up in an error.
const maxBody = 64

// Resolver asks a plain-text "what is my IP" service for the public
// address.  Transport errors and 5xx/429 answers are retried; other
// statuses and bodies that are not an IP address are not.
type Resolver struct {
	URL     string
	Timeout time.Duration
	Backoff *retry.Backoff
	Client  *fasthttp.Client
	Logger  *util.Logger
}

// NewResolver returns a Resolver with a dedicated fasthttp client and
// the short lookup backoff.
func NewResolver(url string, timeout time.Duration, logger *util.Logger) *Resolver {
	return &Resolver{
		URL:     url,
		Timeout: timeout,
		Backoff: retry.LookupBackoff(),
		Client: &fasthttp.Client{
			Name:                "hellosrv",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Second,
		},
		Logger: logger,
	}
}

// GlobalIP returns the public address as reported by the service.
func (r *Resolver) GlobalIP(ctx context.Context) (string, error) {
	b := *r.Backoff
	b.OnRetry = func(attempt int, err error, wait time.Duration) {
		r.Logger.Debug("public address lookup attempt %d: %v (retry in %s)",
			attempt, err, wait.Truncate(time.Millisecond))
	}

	var ip string
	err := b.Do(ctx, func(_ int) error {
		got, err := r.fetch()
		if err != nil {
			return err
		}
		ip = got
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", herrors.ErrLookupFailed, r.URL, err)
	}
	return ip, nil
}

func (r *Resolver) fetch() (string, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(r.URL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "text/plain")

	if err := r.Client.DoTimeout(req, resp, r.Timeout); err != nil {
		return "", err
	}

	status := resp.StatusCode()
	if status != fasthttp.StatusOK {
		err := fmt.Errorf("unexpected status %d", status)
		if status >= 500 || status == fasthttp.StatusTooManyRequests {
			return "", err
		}
		return "", retry.Permanent(err)
	}

	body := strings.TrimSpace(string(resp.Body()))
	ip := net.ParseIP(body)
	if ip == nil {
		if len(body) > maxBody {
			body = body[:maxBody] + "..."
		}
		return "", retry.Permanent(fmt.Errorf("response %q is not an IP address", body))
	}
	return ip.String(), nil
}
