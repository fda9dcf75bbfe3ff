// Package service implements service provider management.
package service

import (
	"context"
	"errors"

	"github.com/sanjaykhatri/lead-management-backend/internal/providers/repository"
	"github.com/sanjaykhatri/lead-management-backend/platform/apperr"
	"github.com/sanjaykhatri/lead-management-backend/platform/logger"
	"github.com/sanjaykhatri/lead-management-backend/platform/phone"
	"github.com/sanjaykhatri/lead-management-backend/platform/validator"

	"github.com/google/uuid"
)

type Service struct {
	repo     *repository.Repository
	validate *validator.Validator
	logger   *logger.Logger
}

func New(repo *repository.Repository, val *validator.Validator, log *logger.Logger) *Service {
	return &Service{repo: repo, validate: val, logger: log}
}

// CreateInput is the validated payload for onboarding a provider.
type CreateInput struct {
	Name    string  `validate:"required,min=2,max=200"`
	Email   string  `validate:"required,email"`
	Phone   string  `validate:"omitempty"`
	Address string  `validate:"omitempty,max=500"`
	ZipCode *string `validate:"omitempty,max=16"`
}

func (s *Service) Create(ctx context.Context, input CreateInput) (repository.Provider, error) {
	if err := s.validate.Struct(input); err != nil {
		return repository.Provider{}, apperr.Wrap(apperr.KindValidation, "invalid provider payload", err).WithOp("providers.Create")
	}
	input.Phone = phone.NormalizeE164(input.Phone)

	provider, err := s.repo.Create(ctx, repository.CreateParams{
		Name:    input.Name,
		Email:   input.Email,
		Phone:   input.Phone,
		Address: input.Address,
		ZipCode: input.ZipCode,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return repository.Provider{}, apperr.Conflict("email is already in use").WithOp("providers.Create")
		}
		return repository.Provider{}, apperr.Wrap(apperr.KindInternal, "failed to create provider", err).WithOp("providers.Create")
	}

	s.logger.Info("service provider created", "providerId", provider.ID)
	return provider, nil
}

// UpdateInput carries optional field updates.
type UpdateInput struct {
	Name    *string `validate:"omitempty,min=2,max=200"`
	Email   *string `validate:"omitempty,email"`
	Phone   *string
	Address *string `validate:"omitempty,max=500"`
	ZipCode *string `validate:"omitempty,max=16"`
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (repository.Provider, error) {
	if err := s.validate.Struct(input); err != nil {
		return repository.Provider{}, apperr.Wrap(apperr.KindValidation, "invalid provider payload", err).WithOp("providers.Update")
	}
	if input.Phone != nil {
		normalized := phone.NormalizeE164(*input.Phone)
		input.Phone = &normalized
	}

	provider, err := s.repo.Update(ctx, id, repository.UpdateParams{
		Name:    input.Name,
		Email:   input.Email,
		Phone:   input.Phone,
		Address: input.Address,
		ZipCode: input.ZipCode,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return repository.Provider{}, apperr.NotFound("provider not found").WithOp("providers.Update")
		case errors.Is(err, repository.ErrEmailTaken):
			return repository.Provider{}, apperr.Conflict("email is already in use").WithOp("providers.Update")
		}
		return repository.Provider{}, apperr.Wrap(apperr.KindInternal, "failed to update provider", err).WithOp("providers.Update")
	}
	return provider, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Provider, error) {
	provider, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Provider{}, apperr.NotFound("provider not found").WithOp("providers.Get")
		}
		return repository.Provider{}, apperr.Wrap(apperr.KindInternal, "failed to load provider", err).WithOp("providers.Get")
	}
	return provider, nil
}

func (s *Service) List(ctx context.Context) ([]repository.Provider, error) {
	providers, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list providers", err).WithOp("providers.List")
	}
	return providers, nil
}

// ProviderName resolves a provider's display name for audit entries.
func (s *Service) ProviderName(ctx context.Context, id uuid.UUID) (string, error) {
	provider, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return provider.Name, nil
}

// ProviderContact resolves a provider's name and email for checkout.
func (s *Service) ProviderContact(ctx context.Context, id uuid.UUID) (string, string, error) {
	provider, err := s.Get(ctx, id)
	if err != nil {
		return "", "", err
	}
	return provider.Name, provider.Email, nil
}

// SetActive toggles lead eligibility for the provider.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) (repository.Provider, error) {
	provider, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Provider{}, apperr.NotFound("provider not found").WithOp("providers.SetActive")
		}
		return repository.Provider{}, apperr.Wrap(apperr.KindInternal, "failed to update provider", err).WithOp("providers.SetActive")
	}
	s.logger.Info("service provider active flag changed", "providerId", id, "active", active)
	return provider, nil
}
