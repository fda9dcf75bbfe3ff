// Package service implements location management.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sanjaykhatri/lead-management-backend/internal/leads/domain"
	"github.com/sanjaykhatri/lead-management-backend/internal/locations/repository"
	"github.com/sanjaykhatri/lead-management-backend/platform/apperr"
	"github.com/sanjaykhatri/lead-management-backend/platform/logger"

	"github.com/google/uuid"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a display name to a URL-safe slug.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugPattern.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

type Service struct {
	repo   *repository.Repository
	logger *logger.Logger
}

func New(repo *repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

// CreateInput is the validated payload for creating a location.
type CreateInput struct {
	Name                string
	Slug                string
	Address             string
	AssignmentAlgorithm string
}

func (s *Service) Create(ctx context.Context, input CreateInput) (repository.Location, error) {
	if input.Slug == "" {
		input.Slug = Slugify(input.Name)
	}
	if input.Slug == "" {
		return repository.Location{}, apperr.Validation("location name must produce a non-empty slug").WithOp("locations.Create")
	}
	algorithm := input.AssignmentAlgorithm
	if algorithm == "" {
		algorithm = string(domain.AlgorithmRoundRobin)
	}
	if _, err := domain.ParseAlgorithm(algorithm); err != nil {
		return repository.Location{}, apperr.Validation(err.Error()).WithOp("locations.Create")
	}

	location, err := s.repo.Create(ctx, repository.CreateParams{
		Name:                input.Name,
		Slug:                input.Slug,
		Address:             input.Address,
		AssignmentAlgorithm: algorithm,
	})
	if err != nil {
		if errors.Is(err, repository.ErrSlugTaken) {
			return repository.Location{}, apperr.Conflict(fmt.Sprintf("slug %q is already in use", input.Slug)).WithOp("locations.Create")
		}
		return repository.Location{}, apperr.Wrap(apperr.KindInternal, "failed to create location", err).WithOp("locations.Create")
	}

	s.logger.Info("location created", "locationId", location.ID, "slug", location.Slug)
	return location, nil
}

// UpdateInput carries optional field updates.
type UpdateInput struct {
	Name                *string
	Slug                *string
	Address             *string
	AssignmentAlgorithm *string
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (repository.Location, error) {
	if input.AssignmentAlgorithm != nil {
		if _, err := domain.ParseAlgorithm(*input.AssignmentAlgorithm); err != nil {
			return repository.Location{}, apperr.Validation(err.Error()).WithOp("locations.Update")
		}
	}
	if input.Slug != nil && *input.Slug == "" {
		return repository.Location{}, apperr.Validation("slug cannot be empty").WithOp("locations.Update")
	}

	location, err := s.repo.Update(ctx, id, repository.UpdateParams{
		Name:                input.Name,
		Slug:                input.Slug,
		Address:             input.Address,
		AssignmentAlgorithm: input.AssignmentAlgorithm,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return repository.Location{}, apperr.NotFound("location not found").WithOp("locations.Update")
		case errors.Is(err, repository.ErrSlugTaken):
			return repository.Location{}, apperr.Conflict("slug is already in use").WithOp("locations.Update")
		}
		return repository.Location{}, apperr.Wrap(apperr.KindInternal, "failed to update location", err).WithOp("locations.Update")
	}
	return location, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Location, error) {
	location, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Location{}, apperr.NotFound("location not found").WithOp("locations.Get")
		}
		return repository.Location{}, apperr.Wrap(apperr.KindInternal, "failed to load location", err).WithOp("locations.Get")
	}
	return location, nil
}

// GetBySlug resolves a location for the public intake form.
func (s *Service) GetBySlug(ctx context.Context, slug string) (repository.Location, error) {
	location, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Location{}, apperr.NotFound("location not found").WithOp("locations.GetBySlug")
		}
		return repository.Location{}, apperr.Wrap(apperr.KindInternal, "failed to load location", err).WithOp("locations.GetBySlug")
	}
	return location, nil
}

func (s *Service) List(ctx context.Context) ([]repository.Location, error) {
	locations, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list locations", err).WithOp("locations.List")
	}
	return locations, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("location not found").WithOp("locations.Delete")
		}
		return apperr.Wrap(apperr.KindInternal, "failed to delete location", err).WithOp("locations.Delete")
	}
	s.logger.Info("location deleted", "locationId", id)
	return nil
}

// LinkProvider adds a provider to the location's routing pool.
func (s *Service) LinkProvider(ctx context.Context, locationID, providerID uuid.UUID) error {
	if _, err := s.Get(ctx, locationID); err != nil {
		return err
	}
	if err := s.repo.LinkProvider(ctx, locationID, providerID); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to link provider", err).WithOp("locations.LinkProvider")
	}
	return nil
}

// UnlinkProvider removes a provider from the location's routing pool.
func (s *Service) UnlinkProvider(ctx context.Context, locationID, providerID uuid.UUID) error {
	if err := s.repo.UnlinkProvider(ctx, locationID, providerID); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to unlink provider", err).WithOp("locations.UnlinkProvider")
	}
	return nil
}

// LinkedProviderIDs lists the providers attached to a location.
func (s *Service) LinkedProviderIDs(ctx context.Context, locationID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := s.repo.LinkedProviderIDs(ctx, locationID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list linked providers", err).WithOp("locations.LinkedProviderIDs")
	}
	return ids, nil
}
