package platform

import (
	"context"
	"net/http"
	"net/url"

	"scribe/internal/api"
	"scribe/internal/session"
)

// SessionStore is the part of session.Store the services use.
type SessionStore interface {
	Credential() string
	Identity() *session.Identity
	SetSession(identity *session.Identity, credential string) error
	ClearSession() error
}

// Client groups every platform service over one Doer and session store.
type Client struct {
	Auth      *AuthService
	Audio     *AudioService
	Documents *DocumentService
	Dashboard *DashboardService
	Admin     *AdminService
	Settings  *SettingsService
}

// New builds a Client. doer should be an *api.Pipeline wrapping the gateway.
func New(doer api.Doer, store SessionStore) *Client {
	c := caller{doer: doer, store: store}
	return &Client{
		Auth:      &AuthService{caller: c},
		Audio:     &AudioService{caller: c},
		Documents: &DocumentService{caller: c},
		Dashboard: &DashboardService{caller: c},
		Admin:     &AdminService{caller: c},
		Settings:  &SettingsService{caller: c},
	}
}

type caller struct {
	doer  api.Doer
	store SessionStore
}

func (c caller) get(ctx context.Context, path string, query url.Values, out any) error {
	_, err := c.doer.Do(ctx, &api.Request{Method: http.MethodGet, Path: path, Query: query}, out)
	return err
}

func (c caller) send(ctx context.Context, method, path string, body, out any) error {
	_, err := c.doer.Do(ctx, &api.Request{Method: method, Path: path, Body: body}, out)
	return err
}

// tokenURL resolves an absolute URL for a token-bearing path without issuing
// a request.
func (c caller) tokenURL(path string) (string, error) {
	credential := c.store.Credential()
	if credential == "" {
		return "", session.ErrNotAuthenticated
	}
	return c.doer.URL(api.ExpandToken(path, credential)), nil
}
