package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonwraymond/depshield/resilience"
)

// maxResponseBody caps how much of a response is buffered.
const maxResponseBody = 10 << 20

// Request describes an HTTP call to a dependency.
type Request struct {
	Method string
	Path   string
	Body   []byte
	Header http.Header
}

// Response carries the dependency's reply.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// StatusError reports a non-2xx response. The resilience classification
// wrapping it decides whether the status is worth retrying.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("transport: unexpected status %d", e.StatusCode)
}

// HTTPConfig configures an HTTP transport.
type HTTPConfig struct {
	// BaseURL is prefixed to every request path.
	BaseURL string

	// Header entries are applied to every request.
	Header http.Header

	// Client overrides the default instrumented client.
	Client *http.Client
}

// HTTPTransport sends dependency calls over HTTP. Timeouts arrive per call
// from the resilience layer: the connect timeout bounds dialing, the read
// timeout bounds the whole exchange. Failures come back classified so the
// retry policy knows what is worth another attempt.
type HTTPTransport struct {
	baseURL string
	header  http.Header
	client  *http.Client
}

type connectTimeoutKey struct{}

// NewHTTPTransport creates a transport for the given base URL.
func NewHTTPTransport(config HTTPConfig) *HTTPTransport {
	client := config.Client
	if client == nil {
		dialer := &net.Dialer{}
		client = &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
					if d, ok := ctx.Value(connectTimeoutKey{}).(time.Duration); ok && d > 0 {
						var cancel context.CancelFunc
						ctx, cancel = context.WithTimeout(ctx, d)
						defer cancel()
					}
					return dialer.DialContext(ctx, network, addr)
				},
				MaxIdleConnsPerHost: 8,
			},
		}
	}

	return &HTTPTransport{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		header:  config.Header,
		client:  client,
	}
}

// Send issues the request. The req argument must be a *Request or Request.
func (t *HTTPTransport) Send(ctx context.Context, req any, connectTimeout, readTimeout time.Duration) (any, error) {
	hr, err := t.toRequest(req)
	if err != nil {
		return nil, resilience.Permanent(err)
	}

	if readTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, readTimeout)
		defer cancel()
	}
	if connectTimeout > 0 {
		ctx = context.WithValue(ctx, connectTimeoutKey{}, connectTimeout)
	}

	httpReq, err := t.build(ctx, hr)
	if err != nil {
		return nil, resilience.Permanent(err)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, classifyNetError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, resilience.Transient(fmt.Errorf("transport: read body: %w", err))
	}

	if resp.StatusCode >= 400 {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: body}
		if retryableStatus(resp.StatusCode) {
			return nil, resilience.Transient(statusErr)
		}
		return nil, resilience.Permanent(statusErr)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		Header:     resp.Header,
	}, nil
}

func (t *HTTPTransport) toRequest(req any) (*Request, error) {
	switch r := req.(type) {
	case *Request:
		return r, nil
	case Request:
		return &r, nil
	default:
		return nil, fmt.Errorf("transport: unsupported request type %T", req)
	}
}

func (t *HTTPTransport) build(ctx context.Context, hr *Request) (*http.Request, error) {
	method := hr.Method
	if method == "" {
		method = http.MethodGet
	}

	target := t.baseURL + "/" + strings.TrimLeft(hr.Path, "/")
	if _, err := url.Parse(target); err != nil {
		return nil, fmt.Errorf("transport: bad url %q: %w", target, err)
	}

	var body io.Reader
	if len(hr.Body) > 0 {
		body = bytes.NewReader(hr.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}

	for key, values := range t.header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	for key, values := range hr.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	return httpReq, nil
}

// classifyNetError maps transport-level failures. Everything that can clear
// on its own (timeouts, refused connections, DNS hiccups) is transient;
// context cancellation passes through untouched so the caller sees its own
// deadline rather than a retry hint.
func classifyNetError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return resilience.Transient(err)
}

// retryableStatus reports whether a status is worth another attempt.
func retryableStatus(code int) bool {
	switch {
	case code == http.StatusTooManyRequests:
		return true
	case code == http.StatusRequestTimeout:
		return true
	case code >= 500:
		return true
	default:
		return false
	}
}

var _ resilience.Transport = (*HTTPTransport)(nil)
