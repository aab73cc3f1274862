package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"scribe/internal/logging"
)

const (
	maxResponseBody = 32 << 20
	maxErrorBody    = 64 << 10
)

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Doer dispatches backend requests. Gateway and Pipeline both implement it.
type Doer interface {
	Do(ctx context.Context, req *Request, out any) (*Response, error)
	URL(path string) string
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client HTTPDoer) GatewayOption {
	return func(g *Gateway) {
		if client != nil {
			g.client = client
		}
	}
}

// WithRateLimit caps outbound requests at rps with the given burst. A
// non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) GatewayOption {
	return func(g *Gateway) {
		if rps <= 0 {
			g.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(agent string) GatewayOption {
	return func(g *Gateway) {
		g.userAgent = strings.TrimSpace(agent)
	}
}

// WithLogger routes request diagnostics to logger.
func WithLogger(logger *slog.Logger) GatewayOption {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// Gateway builds full URLs from the configured base address and dispatches
// requests. It performs no retries and attaches no credentials.
type Gateway struct {
	baseURL   string
	client    HTTPDoer
	limiter   *rate.Limiter
	userAgent string
	logger    *slog.Logger
}

// NewGateway constructs a Gateway for baseURL, e.g. "http://localhost:8000/api".
func NewGateway(baseURL string, opts ...GatewayOption) (*Gateway, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errors.New("api: base url is required")
	}
	g := &Gateway{
		baseURL: trimmed,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = logging.NewComponentLogger(g.logger, "gateway")
	return g, nil
}

// URL returns the absolute URL for an endpoint path.
func (g *Gateway) URL(path string) string {
	if path == "" {
		return g.baseURL
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return g.baseURL + path
}

// Do dispatches req and decodes a JSON response into out when out is non-nil.
func (g *Gateway) Do(ctx context.Context, req *Request, out any) (*Response, error) {
	if req == nil {
		return nil, errors.New("api: nil request")
	}
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	logPath := req.displayPath()

	requestID, ok := logging.RequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.NewString()
		ctx = logging.WithRequestID(ctx, requestID)
	}
	logger := logging.WithContext(ctx, g.logger).With(
		logging.String(logging.FieldMethod, method),
		logging.String(logging.FieldPath, logPath),
	)

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Method: method, Path: logPath, Err: err}
		}
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, fmt.Errorf("api: %s %s: %w", method, logPath, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, g.fullURL(req), body)
	if err != nil {
		if body != nil {
			_ = body.Close()
		}
		return nil, fmt.Errorf("api: build request %s %s: %w", method, logPath, err)
	}
	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if g.userAgent != "" {
		httpReq.Header.Set("User-Agent", g.userAgent)
	}

	started := time.Now()
	resp, err := g.client.Do(httpReq)
	if err != nil {
		transportErr := &TransportError{Method: method, Path: logPath, Err: err}
		logger.Debug("request failed", logging.String("cause", transportErr.Text()))
		return nil, transportErr
	}
	defer resp.Body.Close()

	logger.Debug("request complete",
		logging.Int(logging.FieldStatus, resp.StatusCode),
		logging.Duration("elapsed", time.Since(started)),
	)

	result := &Response{StatusCode: resp.StatusCode, Header: resp.Header.Clone(), RequestID: requestID}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return result, &StatusError{
			Method:     method,
			Path:       logPath,
			StatusCode: resp.StatusCode,
			Status:     statusLine(resp),
			Body:       data,
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return result, nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return result, &TransportError{Method: method, Path: logPath, Err: fmt.Errorf("read response: %w", err)}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		logger.Debug("response decode failed", logging.Error(err))
		return result, &StatusError{
			Method:     method,
			Path:       logPath,
			StatusCode: resp.StatusCode,
			Status:     statusLine(resp),
			Body:       truncate(data, maxErrorBody),
			Err:        ErrMalformedBody,
		}
	}
	return result, nil
}

func (g *Gateway) fullURL(req *Request) string {
	full := g.URL(req.Path)
	if len(req.Query) == 0 {
		return full
	}
	sep := "?"
	if strings.Contains(full, "?") {
		sep = "&"
	}
	return full + sep + req.Query.Encode()
}

func encodeBody(req *Request) (io.ReadCloser, string, error) {
	switch body := req.Body.(type) {
	case nil:
		return nil, "", nil
	case *Multipart:
		reader, contentType := body.reader()
		return reader, contentType, nil
	case io.Reader:
		contentType := req.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		return io.NopCloser(body), contentType, nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("marshal request body: %w", err)
		}
		return io.NopCloser(bytes.NewReader(data)), "application/json", nil
	}
}

func statusLine(resp *http.Response) string {
	if status := strings.TrimSpace(resp.Status); status != "" {
		return status
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return fmt.Sprintf("%d %s", resp.StatusCode, text)
	}
	return fmt.Sprintf("%d", resp.StatusCode)
}

func truncate(data []byte, limit int) []byte {
	if len(data) <= limit {
		return data
	}
	return data[:limit]
}
