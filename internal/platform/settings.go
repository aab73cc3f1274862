package platform

import (
	"context"
	"net/http"
)

// SettingsService reads and writes user and system settings and the audit
// trail.
type SettingsService struct {
	caller
}

func (s *SettingsService) UserSettings(ctx context.Context) (*UserSettings, error) {
	var out UserSettings
	if err := s.get(ctx, "/settings/user/{token}/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *SettingsService) UpdateUserSettings(ctx context.Context, settings UserSettingsUpdate) (*UserSettings, error) {
	var out UserSettings
	if err := s.send(ctx, http.MethodPut, "/settings/user/{token}/", settings, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *SettingsService) SystemSettings(ctx context.Context) (*SystemSettings, error) {
	var out SystemSettings
	if err := s.get(ctx, "/settings/system/{token}/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *SettingsService) UpdateSystemSettings(ctx context.Context, settings SystemSettingsUpdate) (*SystemSettings, error) {
	var out SystemSettings
	if err := s.send(ctx, http.MethodPut, "/settings/system/{token}/", settings, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *SettingsService) AuditLogs(ctx context.Context) ([]AuditLog, error) {
	var out []AuditLog
	if err := s.get(ctx, "/audit-logs/{token}/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
