package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	apperrors "dogwrangle/internal/errors"
	"dogwrangle/internal/exporter"
)

const defaultTimeout = 30 * time.Second

// Client downloads source files over HTTP
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	logger     *slog.Logger
}

// New creates a client with the specified timeout. Requests go through an
// otelhttp transport, so each download shows up as a client span.
func New(timeout time.Duration, userAgent string, logger *slog.Logger) *Client {
	return NewWithTransport(timeout, userAgent, http.DefaultTransport, logger)
}

// NewWithTransport creates a client over a custom round tripper
func NewWithTransport(timeout time.Duration, userAgent string, transport http.RoundTripper, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(transport),
		},
		timeout:   timeout,
		userAgent: userAgent,
		logger:    logger,
	}
}

// GetTimeout returns the client timeout
func (c *Client) GetTimeout() time.Duration {
	return c.timeout
}

// Download performs a single GET of url and stores the body at dest.
// Anything but 200 OK is a NETWORK error and leaves dest untouched.
func (c *Client) Download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return apperrors.NewNetworkError("failed to create request", err).WithContext("url", url)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return apperrors.NewNetworkError(fmt.Sprintf("GET %s failed", url), err).WithContext("url", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// drain a little so the connection can be reused
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return apperrors.NewNetworkError(fmt.Sprintf("GET %s returned %s", url, resp.Status), nil).
			WithContext("url", url).
			WithContext("status", resp.StatusCode)
	}

	body := &trackingReader{r: resp.Body}
	var written int64
	err = exporter.WriteAtomic(dest, func(out io.Writer) error {
		n, err := io.Copy(out, body)
		written = n
		return err
	})
	if err != nil {
		if body.err != nil {
			return apperrors.NewNetworkError(fmt.Sprintf("reading body of %s failed", url), body.err).
				WithContext("url", url)
		}
		return err
	}

	c.logger.InfoContext(ctx, "Download completed",
		slog.String("url", url),
		slog.String("path", dest),
		slog.Int64("bytes", written),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// trackingReader remembers the first read error so a failed body can be
// told apart from a failed write
type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF && t.err == nil {
		t.err = err
	}
	return n, err
}
