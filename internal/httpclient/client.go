// Package httpclient performs one HTTP exchange from a realized
// (post-interpolation) RequestSpec, pooling connections across workers and
// classifying transport failures into the spec's closed error taxonomy.
package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/net/http2"

	"github.com/vanguard-load/vanguard/internal/logging"
	"github.com/vanguard-load/vanguard/pkg/model"
)

// Options configures the pooled transport. Mirrors the fields the config
// boundary validates and defaults (spec.md §6).
type Options struct {
	Concurrency int
	Timeout     time.Duration // per-request wall-clock timeout, default 30s
	Insecure    bool
	KeepAlive   bool
	HTTP2       bool
	H2C         bool // HTTP/2 cleartext, for non-TLS HTTP/2 testing
}

// Client performs pooled HTTP exchanges. One Client is shared by every
// worker in a run; its connection pool is the only long-lived shared
// resource besides the aggregates (spec.md §5).
type Client struct {
	http    *http.Client
	timeout time.Duration
}

// New builds a Client whose idle-connection pool scales with worker
// concurrency: max(concurrency, 64) idle connections per origin, per
// spec.md §4.3.
func New(opts Options) *Client {
	maxConns := opts.Concurrency
	if maxConns < 64 {
		maxConns = 64
	}

	var rt http.RoundTripper
	if opts.H2C {
		rt = &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return (&net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}).DialContext(ctx, network, addr)
			},
		}
	} else {
		transport := &http.Transport{
			TLSClientConfig:     &tls.Config{InsecureSkipVerify: opts.Insecure},
			MaxIdleConns:        maxConns,
			MaxIdleConnsPerHost: maxConns,
			MaxConnsPerHost:     maxConns,
			IdleConnTimeout:     90 * time.Second,
			DisableKeepAlives:   !opts.KeepAlive,
			ForceAttemptHTTP2:   opts.HTTP2,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		}
		if opts.HTTP2 {
			_ = http2.ConfigureTransport(transport) // best-effort; falls back to HTTP/1.1
		}
		rt = transport
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		http:    &http.Client{Transport: rt, Timeout: timeout},
		timeout: timeout,
	}
}

// Close releases pooled connections. The Executor's shutdown path must
// call this after every worker has stopped.
func (c *Client) Close() {
	if t, ok := c.http.Transport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}
}

// Response is the successful exchange result. A received HTTP response,
// even a 5xx, is a Response, not a TransportError — classification happens
// at the Executor/ScenarioRunner layer.
type Response struct {
	Status        int
	BytesReceived int64
	Body          []byte
}

// TransportError is a typed, non-fatal failure of the HTTP exchange itself
// (never a received response). Kind is one of the taxonomy values in
// model.ErrorKind (Dns/Connect/Tls/Timeout/Io/BodyRead).
type TransportError struct {
	Kind model.ErrorKind
	Err  error
}

func (e *TransportError) Error() string { return fmt.Sprintf("%s: %v", e.Kind, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// Realized is a RequestSpec after every template has already been resolved
// by the caller (ScenarioRunner/SimpleRunner) — httpclient never templates
// anything itself.
type Realized struct {
	Method  string
	URL     string
	Headers []model.Header
	Kind    model.BodyKind
	Raw     string
	Parts   []model.MultipartPart // FilePath/Value already resolved
}

// needBody controls whether the caller wants the response body buffered
// (needed for JSONPath extraction or assertions) or just its length.
func (c *Client) Do(ctx context.Context, spec Realized, needBody bool) (*Response, error) {
	body, contentType, err := buildBody(spec)
	if err != nil {
		return nil, &TransportError{Kind: model.ErrIoError, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, spec.Method, spec.URL, body)
	if err != nil {
		return nil, &TransportError{Kind: model.ErrConnectError, Err: err}
	}

	hadUserContentType := false
	for _, h := range spec.Headers {
		if contentType != "" && equalFoldHeader(h.Name, "Content-Type") {
			hadUserContentType = true
			continue // multipart wins; user's Content-Type is dropped with a warning
		}
		req.Header.Set(h.Name, h.Value)
	}
	if contentType != "" {
		if hadUserContentType {
			logging.Warn("httpclient: user-supplied Content-Type ignored for multipart request")
		}
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	var (
		data    []byte
		written int64
	)
	if needBody {
		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, &TransportError{Kind: model.ErrBodyReadError, Err: err}
		}
		written = int64(len(data))
	} else {
		written, err = io.Copy(io.Discard, resp.Body)
		if err != nil {
			return nil, &TransportError{Kind: model.ErrBodyReadError, Err: err}
		}
	}

	return &Response{Status: resp.StatusCode, BytesReceived: written, Body: data}, nil
}

func equalFoldHeader(a, b string) bool {
	return len(a) == len(b) && http.CanonicalHeaderKey(a) == http.CanonicalHeaderKey(b)
}

// buildBody realizes the body for the three body variants. multipart wins
// over raw when both are somehow present (spec.md §4.3 body precedence);
// callers are expected to have resolved that at validation time already,
// but the client enforces it defensively too.
func buildBody(spec Realized) (io.Reader, string, error) {
	switch {
	case spec.Kind == model.BodyMultipart && len(spec.Parts) > 0:
		return buildMultipart(spec.Parts)
	case spec.Kind == model.BodyRaw && spec.Raw != "":
		return bytes.NewBufferString(spec.Raw), "", nil
	default:
		return nil, "", nil
	}
}

func buildMultipart(parts []model.MultipartPart) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, p := range parts {
		if p.IsFile {
			f, err := os.Open(p.FilePath)
			if err != nil {
				return nil, "", fmt.Errorf("multipart file %q: %w", p.FilePath, err)
			}
			fw, err := w.CreateFormFile(p.FieldName, filepathBase(p.FilePath))
			if err != nil {
				f.Close()
				return nil, "", err
			}
			if _, err := io.Copy(fw, f); err != nil {
				f.Close()
				return nil, "", err
			}
			f.Close()
		} else {
			if err := w.WriteField(p.FieldName, p.Value); err != nil {
				return nil, "", err
			}
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func filepathBase(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' || p[i] == '\\' {
			return p[i+1:]
		}
	}
	return p
}

// classify maps a transport-layer error into the spec's closed taxonomy.
func classify(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return &TransportError{Kind: model.ErrTransportTimeout, Err: err}
		}
		var dnsErr *net.DNSError
		if errors.As(urlErr.Err, &dnsErr) {
			return &TransportError{Kind: model.ErrDnsError, Err: err}
		}
		var tlsErr *tls.RecordHeaderError
		if errors.As(urlErr.Err, &tlsErr) {
			return &TransportError{Kind: model.ErrTlsError, Err: err}
		}
		if _, ok := urlErr.Err.(*net.OpError); ok {
			return &TransportError{Kind: model.ErrConnectError, Err: err}
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TransportError{Kind: model.ErrTransportTimeout, Err: err}
	}
	return &TransportError{Kind: model.ErrConnectError, Err: err}
}
