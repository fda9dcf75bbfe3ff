package analytics

import (
	"context"

	"github.com/sanjaykhatri/lead-management-backend/platform/apperr"
)

const (
	defaultWindowDays = 30
	maxWindowDays     = 365
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Dashboard assembles the admin overview. The window only affects the daily
// intake series; the count breakdowns are all-time.
func (s *Service) Dashboard(ctx context.Context, windowDays int) (Dashboard, error) {
	windowDays = clampWindow(windowDays)

	total, unassigned, err := s.repo.Totals(ctx)
	if err != nil {
		return Dashboard{}, apperr.Wrap(apperr.KindInternal, "failed to count leads", err).WithOp("analytics.Dashboard")
	}
	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return Dashboard{}, apperr.Wrap(apperr.KindInternal, "failed to count leads by status", err).WithOp("analytics.Dashboard")
	}
	byLocation, err := s.repo.CountByLocation(ctx)
	if err != nil {
		return Dashboard{}, apperr.Wrap(apperr.KindInternal, "failed to count leads by location", err).WithOp("analytics.Dashboard")
	}
	byProvider, err := s.repo.CountByProvider(ctx)
	if err != nil {
		return Dashboard{}, apperr.Wrap(apperr.KindInternal, "failed to count leads by provider", err).WithOp("analytics.Dashboard")
	}
	perDay, err := s.repo.LeadsPerDay(ctx, windowDays)
	if err != nil {
		return Dashboard{}, apperr.Wrap(apperr.KindInternal, "failed to build intake series", err).WithOp("analytics.Dashboard")
	}

	return Dashboard{
		TotalLeads:      total,
		UnassignedLeads: unassigned,
		ByStatus:        byStatus,
		ByLocation:      byLocation,
		ByProvider:      byProvider,
		LeadsPerDay:     perDay,
	}, nil
}

func clampWindow(days int) int {
	if days <= 0 {
		return defaultWindowDays
	}
	if days > maxWindowDays {
		return maxWindowDays
	}
	return days
}
