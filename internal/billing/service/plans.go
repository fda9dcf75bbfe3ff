package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sanjaykhatri/lead-management-backend/internal/billing/repository"
	"github.com/sanjaykhatri/lead-management-backend/platform/apperr"

	"github.com/google/uuid"
)

// PlanInput is the admin-facing shape for creating or updating a plan.
type PlanInput struct {
	Name             string
	ProcessorPriceID string
	Price            float64
	BillingInterval  string
	TrialDays        int
	Features         []string
	IsActive         bool
	SortOrder        int
}

func (in PlanInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.Validation("plan name is required")
	}
	if strings.TrimSpace(in.ProcessorPriceID) == "" {
		return apperr.Validation("processor price id is required")
	}
	if in.Price < 0 {
		return apperr.Validation("price cannot be negative")
	}
	if in.BillingInterval != "monthly" && in.BillingInterval != "yearly" {
		return apperr.Validation("billing interval must be monthly or yearly")
	}
	if in.TrialDays < 0 {
		return apperr.Validation("trial days cannot be negative")
	}
	return nil
}

func (in PlanInput) params() repository.PlanParams {
	return repository.PlanParams{
		Name:             strings.TrimSpace(in.Name),
		ProcessorPriceID: strings.TrimSpace(in.ProcessorPriceID),
		Price:            in.Price,
		BillingInterval:  in.BillingInterval,
		TrialDays:        in.TrialDays,
		Features:         in.Features,
		IsActive:         in.IsActive,
		SortOrder:        in.SortOrder,
	}
}

func (s *Service) CreatePlan(ctx context.Context, in PlanInput) (repository.Plan, error) {
	if err := in.validate(); err != nil {
		return repository.Plan{}, err
	}
	plan, err := s.store.CreatePlan(ctx, in.params())
	if err != nil {
		if errors.Is(err, repository.ErrPriceIDTaken) {
			return repository.Plan{}, apperr.Conflict("another plan already uses this price id").WithOp("billing.CreatePlan")
		}
		return repository.Plan{}, apperr.Wrap(apperr.KindInternal, "failed to create plan", err).WithOp("billing.CreatePlan")
	}
	s.logger.Info("subscription plan created", "planId", plan.ID, "name", plan.Name)
	return plan, nil
}

func (s *Service) UpdatePlan(ctx context.Context, id uuid.UUID, in PlanInput) (repository.Plan, error) {
	if err := in.validate(); err != nil {
		return repository.Plan{}, err
	}
	plan, err := s.store.UpdatePlan(ctx, id, in.params())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPlanNotFound):
			return repository.Plan{}, apperr.NotFound("plan not found").WithOp("billing.UpdatePlan")
		case errors.Is(err, repository.ErrPriceIDTaken):
			return repository.Plan{}, apperr.Conflict("another plan already uses this price id").WithOp("billing.UpdatePlan")
		}
		return repository.Plan{}, apperr.Wrap(apperr.KindInternal, "failed to update plan", err).WithOp("billing.UpdatePlan")
	}
	return plan, nil
}

// DeletePlan removes a plan that no subscription references. Plans that
// providers hold must be deactivated instead.
func (s *Service) DeletePlan(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeletePlan(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrPlanNotFound):
			return apperr.NotFound("plan not found").WithOp("billing.DeletePlan")
		case errors.Is(err, repository.ErrPlanInUse):
			return apperr.Conflict("plan has subscriptions; deactivate it instead").WithOp("billing.DeletePlan")
		}
		return apperr.Wrap(apperr.KindInternal, "failed to delete plan", err).WithOp("billing.DeletePlan")
	}
	s.logger.Info("subscription plan deleted", "planId", id)
	return nil
}

func (s *Service) GetPlan(ctx context.Context, id uuid.UUID) (repository.Plan, error) {
	plan, err := s.store.GetPlan(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPlanNotFound) {
			return repository.Plan{}, apperr.NotFound("plan not found").WithOp("billing.GetPlan")
		}
		return repository.Plan{}, apperr.Wrap(apperr.KindInternal, "failed to load plan", err).WithOp("billing.GetPlan")
	}
	return plan, nil
}

// ListPlans returns plans for display. Non-admin callers only see active ones.
func (s *Service) ListPlans(ctx context.Context, activeOnly bool) ([]repository.Plan, error) {
	plans, err := s.store.ListPlans(ctx, activeOnly)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list plans", err).WithOp("billing.ListPlans")
	}
	return plans, nil
}
