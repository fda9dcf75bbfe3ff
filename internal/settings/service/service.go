// Package service implements typed access to the settings store with a
// read-through Redis cache in front of the database.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/sanjaykhatri/lead-management-backend/internal/settings/cache"
	"github.com/sanjaykhatri/lead-management-backend/internal/settings/repository"
	"github.com/sanjaykhatri/lead-management-backend/platform/apperr"
	"github.com/sanjaykhatri/lead-management-backend/platform/logger"

	"gopkg.in/yaml.v3"
)

// Setting value types stored in the settings table.
const (
	TypeString = "string"
	TypeBool   = "boolean"
	TypeInt    = "integer"
	TypeJSON   = "json"
)

var validTypes = map[string]bool{
	TypeString: true,
	TypeBool:   true,
	TypeInt:    true,
	TypeJSON:   true,
}

// Repository is the persistence surface the service needs.
type Repository interface {
	Get(ctx context.Context, key string) (repository.Setting, error)
	Upsert(ctx context.Context, params repository.UpsertParams) (repository.Setting, error)
	InsertIfAbsent(ctx context.Context, params repository.UpsertParams) error
	List(ctx context.Context) ([]repository.Setting, error)
	ListByGroup(ctx context.Context, group string) ([]repository.Setting, error)
}

type Service struct {
	repo   Repository
	cache  *cache.Cache
	logger *logger.Logger
}

func New(repo Repository, c *cache.Cache, log *logger.Logger) *Service {
	return &Service{repo: repo, cache: c, logger: log}
}

// Get returns the raw string value for key, consulting the cache first.
func (s *Service) Get(ctx context.Context, key string) (string, error) {
	if value, ok := s.cache.Get(ctx, key); ok {
		return value, nil
	}
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperr.NotFound(fmt.Sprintf("setting %q not found", key)).WithOp("settings.Get")
		}
		return "", apperr.Wrap(apperr.KindInternal, "failed to load setting", err).WithOp("settings.Get")
	}
	s.cache.Set(ctx, key, setting.Value)
	return setting.Value, nil
}

// GetOrDefault returns the value for key, or fallback when the key is absent.
func (s *Service) GetOrDefault(ctx context.Context, key, fallback string) string {
	value, err := s.Get(ctx, key)
	if err != nil {
		return fallback
	}
	return value
}

// GetBool parses the value for key as a boolean. Missing keys and parse
// failures return fallback.
func (s *Service) GetBool(ctx context.Context, key string, fallback bool) bool {
	value, err := s.Get(ctx, key)
	if err != nil {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// GetInt parses the value for key as an integer. Missing keys and parse
// failures return fallback.
func (s *Service) GetInt(ctx context.Context, key string, fallback int) int {
	value, err := s.Get(ctx, key)
	if err != nil {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// GetJSON unmarshals the value for key into out.
func (s *Service) GetJSON(ctx context.Context, key string, out any) error {
	value, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(value), out); err != nil {
		return apperr.Wrap(apperr.KindInternal, fmt.Sprintf("setting %q holds invalid JSON", key), err).WithOp("settings.GetJSON")
	}
	return nil
}

// Set writes a setting value and invalidates the cached entry.
func (s *Service) Set(ctx context.Context, params repository.UpsertParams) (repository.Setting, error) {
	if params.Key == "" {
		return repository.Setting{}, apperr.Validation("key is required").WithOp("settings.Set")
	}
	if params.Type == "" {
		params.Type = TypeString
	}
	if !validTypes[params.Type] {
		return repository.Setting{}, apperr.Validation(fmt.Sprintf("unknown setting type %q", params.Type)).WithOp("settings.Set")
	}
	if err := validateValue(params.Type, params.Value); err != nil {
		return repository.Setting{}, apperr.Validation(err.Error()).WithOp("settings.Set")
	}
	setting, err := s.repo.Upsert(ctx, params)
	if err != nil {
		return repository.Setting{}, apperr.Wrap(apperr.KindInternal, "failed to save setting", err).WithOp("settings.Set")
	}
	s.cache.Invalidate(ctx, params.Key)
	return setting, nil
}

func validateValue(settingType, value string) error {
	switch settingType {
	case TypeBool:
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("value %q is not a boolean", value)
		}
	case TypeInt:
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("value %q is not an integer", value)
		}
	case TypeJSON:
		if !json.Valid([]byte(value)) {
			return fmt.Errorf("value is not valid JSON")
		}
	}
	return nil
}

// List returns all settings ordered by group and key.
func (s *Service) List(ctx context.Context) ([]repository.Setting, error) {
	settings, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list settings", err).WithOp("settings.List")
	}
	return settings, nil
}

// ListByGroup returns the settings in one group.
func (s *Service) ListByGroup(ctx context.Context, group string) ([]repository.Setting, error) {
	settings, err := s.repo.ListByGroup(ctx, group)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list settings", err).WithOp("settings.ListByGroup")
	}
	return settings, nil
}

// NotificationConfig resolves the notification-related toggles in one read.
type NotificationConfig struct {
	SMSEnabled    bool
	EmailEnabled  bool
	InAppEnabled  bool
	AdminPhone    string
	AdminEmail    string
	SenderName    string
	QuietHoursUTC string
}

// NotificationConfig loads the notifications group with per-key fallbacks.
func (s *Service) NotificationConfig(ctx context.Context) NotificationConfig {
	return NotificationConfig{
		SMSEnabled:    s.GetBool(ctx, "notifications.sms_enabled", false),
		EmailEnabled:  s.GetBool(ctx, "notifications.email_enabled", true),
		InAppEnabled:  s.GetBool(ctx, "notifications.inapp_enabled", true),
		AdminPhone:    s.GetOrDefault(ctx, "notifications.admin_phone", ""),
		AdminEmail:    s.GetOrDefault(ctx, "notifications.admin_email", ""),
		SenderName:    s.GetOrDefault(ctx, "notifications.sender_name", "Lead Portal"),
		QuietHoursUTC: s.GetOrDefault(ctx, "notifications.quiet_hours_utc", ""),
	}
}

// seedEntry mirrors one entry in the embedded defaults file.
type seedEntry struct {
	Key         string `yaml:"key"`
	Value       string `yaml:"value"`
	Type        string `yaml:"type"`
	Group       string `yaml:"group"`
	Description string `yaml:"description"`
}

// SeedDefaults inserts any missing default settings. Existing rows are never
// overwritten, so operator changes survive restarts.
func (s *Service) SeedDefaults(ctx context.Context, defaultsYAML []byte) error {
	var entries []seedEntry
	if err := yaml.Unmarshal(defaultsYAML, &entries); err != nil {
		return fmt.Errorf("parse settings defaults: %w", err)
	}
	for _, entry := range entries {
		if entry.Key == "" {
			continue
		}
		settingType := entry.Type
		if settingType == "" {
			settingType = TypeString
		}
		var description *string
		if entry.Description != "" {
			d := entry.Description
			description = &d
		}
		err := s.repo.InsertIfAbsent(ctx, repository.UpsertParams{
			Key:         entry.Key,
			Value:       entry.Value,
			Type:        settingType,
			Group:       entry.Group,
			Description: description,
		})
		if err != nil {
			return fmt.Errorf("seed setting %q: %w", entry.Key, err)
		}
	}
	s.logger.Debug("settings defaults seeded", "count", len(entries))
	return nil
}
