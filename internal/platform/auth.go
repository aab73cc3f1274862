package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"scribe/internal/session"
)

// AuthService signs users in and out and manages their profile.
type AuthService struct {
	caller
}

// Login exchanges email and password for a credential. On success the
// returned identity and credential become the current session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, errors.New("login: email and password are required")
	}

	var resp LoginResponse
	body := map[string]string{"email": email, "password": password}
	if err := s.send(ctx, http.MethodPost, "/login/", body, &resp); err != nil {
		return nil, err
	}
	if resp.Token != "" {
		if err := s.store.SetSession(resp.Data, resp.Token); err != nil {
			return nil, fmt.Errorf("store session: %w", err)
		}
	}
	return &resp, nil
}

// Register creates an account. It does not sign the user in.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) error {
	return s.send(ctx, http.MethodPost, "/register/", req, nil)
}

// Logout revokes the credential on the backend and clears the session.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.send(ctx, http.MethodPost, "/logout/{token}/", map[string]any{}, nil); err != nil {
		return err
	}
	return s.store.ClearSession()
}

// Profile fetches the signed-in user's profile.
func (s *AuthService) Profile(ctx context.Context) (*session.Identity, error) {
	var identity session.Identity
	if err := s.get(ctx, "/profile/{token}/", nil, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

// UpdateProfile changes the signed-in user's profile and refreshes the
// stored identity, keeping the current credential.
func (s *AuthService) UpdateProfile(ctx context.Context, update ProfileUpdate) (*session.Identity, error) {
	var identity session.Identity
	if err := s.send(ctx, http.MethodPut, "/profile/{token}/", update, &identity); err != nil {
		return nil, err
	}
	if err := s.store.SetSession(&identity, s.store.Credential()); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return &identity, nil
}
