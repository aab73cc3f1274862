package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"scribe/internal/session"
)

// AdminService manages user accounts. The backend rejects callers without the
// admin role.
type AdminService struct {
	caller
}

func (s *AdminService) Users(ctx context.Context) ([]session.Identity, error) {
	var out []session.Identity
	if err := s.get(ctx, "/admin/users/{token}/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *AdminService) User(ctx context.Context, userID int64) (*session.Identity, error) {
	var out session.Identity
	if err := s.get(ctx, userPath(userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *AdminService) UpdateUser(ctx context.Context, userID int64, update ProfileUpdate) (*session.Identity, error) {
	var out session.Identity
	if err := s.send(ctx, http.MethodPut, userPath(userID), update, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, userID int64) error {
	return s.send(ctx, http.MethodDelete, userPath(userID), nil, nil)
}

// DashboardSummary returns platform-wide counters. Its shape varies between
// backend releases, so it is returned undecoded.
func (s *AdminService) DashboardSummary(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	if err := s.get(ctx, "/admin/dashboard-summary/{token}/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func userPath(userID int64) string {
	return fmt.Sprintf("/admin/user/%d/{token}/", userID)
}
