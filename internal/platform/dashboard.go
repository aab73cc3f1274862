package platform

import "context"

// DashboardService reads the per-user dashboard counters.
type DashboardService struct {
	caller
}

// Summary returns the caller's document and audio counters.
func (s *DashboardService) Summary(ctx context.Context) (*DashboardSummary, error) {
	var out DashboardSummary
	if err := s.get(ctx, "/dashboard/summary/{token}/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
