package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/c360/pageql/errors"
)

// HTTPDoer is the minimal HTTP client surface the link needs. *http.Client
// satisfies it; tests substitute recording doubles.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// HTTPLink is the terminal transport link. It POSTs operations as JSON to a
// single configured endpoint, includes credentials via a cookie jar, and
// forwards ONLY the Cookie header captured from the inbound request — every
// other inbound header is dropped before the proxy hop.
type HTTPLink struct {
	endpoint string
	doer     HTTPDoer
	cookie   string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewHTTPLink creates a transport link for the configured endpoint. The
// header argument is the inbound request's header set; only its Cookie value
// survives onto outgoing GraphQL requests.
func NewHTTPLink(config Config, header http.Header, logger *slog.Logger) *HTTPLink {
	if logger == nil {
		logger = slog.Default()
	}

	var cookie string
	if header != nil {
		cookie = header.Get("Cookie")
	}

	// Cookie jar carries credentials issued by the GraphQL server across
	// requests on the same link (include-credentials semantics).
	jar, _ := cookiejar.New(nil)

	return &HTTPLink{
		endpoint: config.Endpoint,
		doer:     &http.Client{Jar: jar, Timeout: config.Timeout()},
		cookie:   cookie,
		timeout:  config.Timeout(),
		logger:   logger.With("link", "http"),
	}
}

// WithDoer replaces the underlying HTTP client. Used by tests and callers
// that need custom transports (retry, tracing).
func (l *HTTPLink) WithDoer(doer HTTPDoer) *HTTPLink {
	l.doer = doer
	return l
}

// Execute implements Link.
func (l *HTTPLink) Execute(ctx context.Context, op *Operation) (*Response, error) {
	body, err := op.MarshalRequest()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.WrapInvalid(err, "HTTPLink", "Execute", "build request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if l.cookie != "" {
		req.Header.Set("Cookie", l.cookie)
	}

	start := time.Now()
	resp, err := l.doer.Do(req)
	if err != nil {
		return nil, errors.WrapTransient(err, "HTTPLink", "Execute",
			fmt.Sprintf("POST %s", l.endpoint))
	}
	defer resp.Body.Close()

	l.logger.Debug("operation executed",
		"operation", op.Name,
		"kind", string(op.Kind()),
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused before we bail.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, errors.WrapTransient(errors.ErrTransportFailed, "HTTPLink", "Execute",
			fmt.Sprintf("unexpected status %d from %s", resp.StatusCode, l.endpoint))
	}

	var out Response
	if err := decodeResponse(resp.Body, &out); err != nil {
		return nil, errors.WrapInvalid(err, "HTTPLink", "Execute", "decode response")
	}

	return &out, nil
}

// decodeResponse reads and decodes a GraphQL HTTP response body.
func decodeResponse(body io.Reader, out *Response) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
