package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"scribe/internal/broadcast"
	"scribe/internal/logging"
	"scribe/internal/session"
)

// CredentialStore is the slice of the session store the pipeline needs.
type CredentialStore interface {
	Credential() string
	ClearSession() error
}

// InvalidationEvent is published when a failure invalidated the session.
// Consumers use it as the signal to send the user back to sign in.
type InvalidationEvent struct {
	Reason      string
	Path        string
	StatusCode  int
	TriggeredAt time.Time
}

// DefaultBootstrapPaths identify endpoints that must never carry a credential.
var DefaultBootstrapPaths = []string{"/login", "/register"}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithBootstrapPaths replaces the bootstrap path fragments. An empty list
// keeps the defaults.
func WithBootstrapPaths(paths []string) PipelineOption {
	return func(p *Pipeline) {
		cleaned := make([]string, 0, len(paths))
		for _, path := range paths {
			if trimmed := strings.TrimSpace(path); trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			p.bootstrapPaths = cleaned
		}
	}
}

// WithPipelineLogger routes pipeline diagnostics to logger.
func WithPipelineLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock overrides the time source used for InvalidationEvent timestamps.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// Pipeline decorates a Doer with credential attachment and session
// invalidation.
type Pipeline struct {
	next           Doer
	store          CredentialStore
	bootstrapPaths []string
	logger         *slog.Logger
	now            func() time.Time
	events         broadcast.Hub[InvalidationEvent]
}

// NewPipeline wraps next. store supplies the credential and is cleared on
// invalidating failures.
func NewPipeline(next Doer, store CredentialStore, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		next:           next,
		store:          store,
		bootstrapPaths: append([]string(nil), DefaultBootstrapPaths...),
		logger:         logging.NewNop(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.NewComponentLogger(p.logger, "auth")
	return p
}

// OnInvalidation subscribes fn to invalidation events and returns the
// unsubscribe function.
func (p *Pipeline) OnInvalidation(fn func(InvalidationEvent)) func() {
	return p.events.Subscribe(fn)
}

// IsBootstrap reports whether path targets a login or registration endpoint.
func (p *Pipeline) IsBootstrap(path string) bool {
	for _, fragment := range p.bootstrapPaths {
		if strings.Contains(path, fragment) {
			return true
		}
	}
	return false
}

// URL delegates to the wrapped Doer.
func (p *Pipeline) URL(path string) string {
	return p.next.URL(path)
}

// Do attaches the credential, dispatches req, and classifies any failure.
// The failure is always returned; invalidating failures additionally clear
// the session and publish an InvalidationEvent first.
func (p *Pipeline) Do(ctx context.Context, req *Request, out any) (*Response, error) {
	if req == nil {
		return nil, errors.New("api: nil request")
	}
	bootstrap := p.IsBootstrap(req.Path)
	outgoing := req.clone()
	outgoing.Header.Del("Authorization")

	if !bootstrap {
		credential := p.store.Credential()
		if strings.Contains(outgoing.Path, TokenPlaceholder) {
			if credential == "" {
				return nil, fmt.Errorf("%s %s: %w", outgoing.Method, outgoing.Path, session.ErrNotAuthenticated)
			}
			if outgoing.LogPath == "" {
				outgoing.LogPath = outgoing.Path
			}
			outgoing.Path = ExpandToken(outgoing.Path, credential)
		}
		if credential != "" {
			outgoing.Header.Set("Authorization", "Token "+credential)
		}
	}

	resp, err := p.next.Do(ctx, outgoing, out)
	if err == nil {
		return resp, nil
	}
	return resp, p.handleFailure(ctx, outgoing, bootstrap, err)
}

func (p *Pipeline) handleFailure(ctx context.Context, req *Request, bootstrap bool, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	status := StatusCode(err)
	serverMessage := ServerMessage(responseBody(err))
	transportText := TransportText(err)
	message := serverMessage
	if message == "" {
		message = strings.TrimSpace(transportText)
	}

	if bootstrap {
		return &AuthError{Kind: ErrAuthBootstrap, Message: message, Err: err}
	}
	if !Classify(status, serverMessage, transportText, false) {
		return err
	}

	logger := logging.WithContext(ctx, p.logger)
	if clearErr := p.store.ClearSession(); clearErr != nil {
		logger.Warn("clear session after invalidation failed", logging.Error(clearErr))
	}

	reason := strings.TrimSpace(message)
	if reason == "" {
		reason = DefaultInvalidationMessage
	}
	logger.Info("session invalidated",
		logging.String(logging.FieldPath, req.displayPath()),
		logging.Int(logging.FieldStatus, status),
		logging.String("reason", reason),
	)
	p.events.Publish(InvalidationEvent{
		Reason:      reason,
		Path:        req.displayPath(),
		StatusCode:  status,
		TriggeredAt: p.now(),
	})
	return &AuthError{Kind: ErrSessionInvalidated, Message: reason, Err: err}
}
