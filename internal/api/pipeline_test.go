package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"scribe/internal/session"
	"scribe/internal/storage"
)

type backendStub struct {
	mu       sync.Mutex
	status   int
	body     string
	requests []*http.Request
}

func (b *backendStub) handler(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.requests = append(b.requests, r.Clone(context.Background()))
	status, body := b.status, b.body
	b.mu.Unlock()
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (b *backendStub) last(t *testing.T) *http.Request {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		t.Fatal("backend received no requests")
	}
	return b.requests[len(b.requests)-1]
}

type pipelineFixture struct {
	backend  *backendStub
	store    *session.Store
	pipeline *Pipeline

	mu     sync.Mutex
	events []InvalidationEvent
}

func newPipelineFixture(t *testing.T, credential string) *pipelineFixture {
	t.Helper()
	backend := &backendStub{}
	server := httptest.NewServer(http.HandlerFunc(backend.handler))
	t.Cleanup(server.Close)

	gw, err := NewGateway(server.URL + "/api")
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}
	store := session.New(storage.NewMemoryStorage())
	if credential != "" {
		if err := store.SetSession(&session.Identity{ID: 1, Email: "ada@example.com"}, credential); err != nil {
			t.Fatalf("SetSession: %v", err)
		}
	}
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := &pipelineFixture{
		backend:  backend,
		store:    store,
		pipeline: NewPipeline(gw, store, WithClock(func() time.Time { return fixed })),
	}
	f.pipeline.OnInvalidation(func(ev InvalidationEvent) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.events = append(f.events, ev)
	})
	return f
}

func (f *pipelineFixture) respond(status int, body string) {
	f.backend.mu.Lock()
	defer f.backend.mu.Unlock()
	f.backend.status = status
	f.backend.body = body
}

func TestBootstrapNeverCarriesCredential(t *testing.T) {
	for _, path := range []string{"/login/", "/register/", "/auth/login/"} {
		t.Run(path, func(t *testing.T) {
			f := newPipelineFixture(t, "tok-1")
			req := &Request{Method: http.MethodPost, Path: path, Header: http.Header{"Authorization": {"Token stale"}}}
			if _, err := f.pipeline.Do(context.Background(), req, nil); err != nil {
				t.Fatalf("Do: %v", err)
			}
			if got := f.backend.last(t).Header.Get("Authorization"); got != "" {
				t.Fatalf("bootstrap request carried Authorization %q", got)
			}
		})
	}
}

func TestCredentialAttachedOnlyWhenPresent(t *testing.T) {
	f := newPipelineFixture(t, "tok-1")
	if _, err := f.pipeline.Do(context.Background(), &Request{Path: "/dashboard/"}, nil); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got := f.backend.last(t).Header.Get("Authorization"); got != "Token tok-1" {
		t.Fatalf("Authorization = %q", got)
	}

	anon := newPipelineFixture(t, "")
	if _, err := anon.pipeline.Do(context.Background(), &Request{Path: "/dashboard/"}, nil); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got := anon.backend.last(t).Header.Get("Authorization"); got != "" {
		t.Fatalf("anonymous request carried Authorization %q", got)
	}
}

func TestAnonymousRequestDropsCallerAuthorization(t *testing.T) {
	f := newPipelineFixture(t, "")
	req := &Request{Path: "/dashboard/", Header: http.Header{"Authorization": {"Token stale"}}}
	if _, err := f.pipeline.Do(context.Background(), req, nil); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got := f.backend.last(t).Header.Get("Authorization"); got != "" {
		t.Fatalf("anonymous request carried Authorization %q", got)
	}
	if req.Header.Get("Authorization") != "Token stale" {
		t.Fatal("caller's request must not be mutated")
	}
}

func TestTokenPathSegmentExpanded(t *testing.T) {
	f := newPipelineFixture(t, "tok-1")
	if _, err := f.pipeline.Do(context.Background(), &Request{Path: "/profile/{token}/"}, nil); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got := f.backend.last(t).URL.Path; got != "/api/profile/tok-1/" {
		t.Fatalf("path = %q", got)
	}
}

func TestTokenPathWithoutCredentialFailsFast(t *testing.T) {
	f := newPipelineFixture(t, "")
	_, err := f.pipeline.Do(context.Background(), &Request{Path: "/profile/{token}/"}, nil)
	if !errors.Is(err, session.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if len(f.backend.requests) != 0 {
		t.Fatal("request must not be dispatched without a credential")
	}
}

func TestUnauthorizedAlwaysInvalidates(t *testing.T) {
	f := newPipelineFixture(t, "tok-1")
	f.respond(http.StatusUnauthorized, `{"detail":"nothing to see"}`)

	_, err := f.pipeline.Do(context.Background(), &Request{Path: "/audio-records/{token}/"}, nil)
	if !errors.Is(err, ErrSessionInvalidated) {
		t.Fatalf("expected ErrSessionInvalidated, got %v", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("original failure not re-raised: %v", err)
	}
	if strings.Contains(err.Error(), "tok-1") {
		t.Fatalf("credential leaked into error: %v", err)
	}
	if f.store.IsAuthenticated() {
		t.Fatal("expected session cleared")
	}
	if len(f.events) != 1 {
		t.Fatalf("expected one invalidation event, got %d", len(f.events))
	}
	ev := f.events[0]
	if ev.Reason != "nothing to see" || ev.StatusCode != http.StatusUnauthorized || ev.Path != "/audio-records/{token}/" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if !ev.TriggeredAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp %v", ev.TriggeredAt)
	}
}

func TestForbiddenWithoutTokenVocabularyDoesNotInvalidate(t *testing.T) {
	f := newPipelineFixture(t, "tok-1")
	f.respond(http.StatusForbidden, `{"detail":"insufficient permissions"}`)

	_, err := f.pipeline.Do(context.Background(), &Request{Path: "/admin/users/{token}/"}, nil)
	if err == nil {
		t.Fatal("expected failure")
	}
	if errors.Is(err, ErrSessionInvalidated) {
		t.Fatal("403 without token vocabulary must not invalidate")
	}
	if StatusCode(err) != http.StatusForbidden {
		t.Fatalf("expected original 403, got %v", err)
	}
	if !f.store.IsAuthenticated() || len(f.events) != 0 {
		t.Fatal("session must survive")
	}
}

func TestForbiddenWithTokenVocabularyInvalidates(t *testing.T) {
	f := newPipelineFixture(t, "tok-1")
	f.respond(http.StatusForbidden, `{"message":"Authentication credentials were not provided."}`)

	_, err := f.pipeline.Do(context.Background(), &Request{Path: "/dashboard/"}, nil)
	if !errors.Is(err, ErrSessionInvalidated) {
		t.Fatalf("expected invalidation, got %v", err)
	}
	if len(f.events) != 1 || f.events[0].Reason != "Authentication credentials were not provided." {
		t.Fatalf("unexpected events %+v", f.events)
	}
}

func TestSuccessStatusWithExpiredTokenBodyInvalidates(t *testing.T) {
	f := newPipelineFixture(t, "tok-1")
	f.respond(http.StatusOK, "Token has expired")

	var out map[string]any
	_, err := f.pipeline.Do(context.Background(), &Request{Path: "/dashboard/"}, &out)
	if !errors.Is(err, ErrSessionInvalidated) {
		t.Fatalf("expected invalidation, got %v", err)
	}
	if !errors.Is(err, ErrMalformedBody) {
		t.Fatalf("expected underlying malformed body failure, got %v", err)
	}
	if f.store.IsAuthenticated() {
		t.Fatal("expected session cleared")
	}
}

func TestBootstrapFailureNeverInvalidates(t *testing.T) {
	f := newPipelineFixture(t, "tok-1")
	f.respond(http.StatusUnauthorized, `{"error":"Invalid token or password"}`)

	_, err := f.pipeline.Do(context.Background(), &Request{Method: http.MethodPost, Path: "/login/"}, nil)
	if !errors.Is(err, ErrAuthBootstrap) {
		t.Fatalf("expected ErrAuthBootstrap, got %v", err)
	}
	if errors.Is(err, ErrSessionInvalidated) {
		t.Fatal("bootstrap failure must not invalidate")
	}
	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.Message != "Invalid token or password" {
		t.Fatalf("expected server message on bootstrap error, got %v", err)
	}
	if !f.store.IsAuthenticated() || len(f.events) != 0 {
		t.Fatal("existing session must survive a failed login")
	}
}

func TestUnrelatedFailurePassesThroughUnchanged(t *testing.T) {
	f := newPipelineFixture(t, "tok-1")
	f.respond(http.StatusInternalServerError, "boom")

	_, err := f.pipeline.Do(context.Background(), &Request{Path: "/dashboard/"}, nil)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %T", err)
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		t.Fatal("non-invalidating failure must be returned as-is")
	}
	if Message(err) != "boom" {
		t.Fatalf("Message = %q", Message(err))
	}
}

func TestEmptyMessageFallsBackToTransportText(t *testing.T) {
	f := newPipelineFixture(t, "tok-1")
	f.respond(http.StatusUnauthorized, "")

	_, err := f.pipeline.Do(context.Background(), &Request{Path: "/dashboard/"}, nil)
	if !errors.Is(err, ErrSessionInvalidated) {
		t.Fatalf("expected invalidation, got %v", err)
	}
	if len(f.events) != 1 || f.events[0].Reason != "401 Unauthorized" {
		t.Fatalf("unexpected events %+v", f.events)
	}
}

func TestConcurrentInvalidationsAreSafe(t *testing.T) {
	f := newPipelineFixture(t, "tok-1")
	f.respond(http.StatusUnauthorized, "")

	var states int
	f.store.Subscribe(func(session.State) { states++ })

	var wg sync.WaitGroup
	var mu sync.Mutex
	var invalidated int
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.pipeline.Do(context.Background(), &Request{Path: "/dashboard/"}, nil)
			if errors.Is(err, ErrSessionInvalidated) {
				mu.Lock()
				invalidated++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if invalidated == 0 {
		t.Fatal("expected invalidations")
	}
	if states != 1 {
		t.Fatalf("expected one anonymous broadcast, got %d", states)
	}
	if f.store.IsAuthenticated() {
		t.Fatal("expected anonymous session")
	}
}
