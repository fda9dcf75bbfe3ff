package service

import (
	"context"
	"testing"
	"time"

	"github.com/sanjaykhatri/lead-management-backend/internal/settings/cache"
	"github.com/sanjaykhatri/lead-management-backend/internal/settings/repository"
	"github.com/sanjaykhatri/lead-management-backend/platform/apperr"
	"github.com/sanjaykhatri/lead-management-backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakeRepo struct {
	settings map[string]repository.Setting
	getCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{settings: make(map[string]repository.Setting)}
}

func (f *fakeRepo) Get(_ context.Context, key string) (repository.Setting, error) {
	f.getCalls++
	s, ok := f.settings[key]
	if !ok {
		return repository.Setting{}, repository.ErrNotFound
	}
	return s, nil
}

func (f *fakeRepo) Upsert(_ context.Context, params repository.UpsertParams) (repository.Setting, error) {
	s := repository.Setting{
		Key:       params.Key,
		Value:     params.Value,
		Type:      params.Type,
		Group:     params.Group,
		UpdatedAt: time.Now(),
	}
	f.settings[params.Key] = s
	return s, nil
}

func (f *fakeRepo) InsertIfAbsent(_ context.Context, params repository.UpsertParams) error {
	if _, ok := f.settings[params.Key]; ok {
		return nil
	}
	f.settings[params.Key] = repository.Setting{
		Key:   params.Key,
		Value: params.Value,
		Type:  params.Type,
		Group: params.Group,
	}
	return nil
}

func (f *fakeRepo) List(_ context.Context) ([]repository.Setting, error) {
	out := make([]repository.Setting, 0, len(f.settings))
	for _, s := range f.settings {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeRepo) ListByGroup(_ context.Context, group string) ([]repository.Setting, error) {
	out := make([]repository.Setting, 0)
	for _, s := range f.settings {
		if s.Group == group {
			out = append(out, s)
		}
	}
	return out, nil
}

func newTestService(t *testing.T, repo Repository) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := cache.NewWithClient(client, time.Minute)
	return New(repo, c, logger.New("development")), mr
}

func TestGetReadsThroughCache(t *testing.T) {
	repo := newFakeRepo()
	repo.settings["leads.auto_assign_enabled"] = repository.Setting{
		Key: "leads.auto_assign_enabled", Value: "true", Type: TypeBool,
	}
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		value, err := svc.Get(ctx, "leads.auto_assign_enabled")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if value != "true" {
			t.Fatalf("value = %q, want %q", value, "true")
		}
	}
	if repo.getCalls != 1 {
		t.Errorf("repo.getCalls = %d, want 1 (subsequent reads served from cache)", repo.getCalls)
	}
}

func TestGetMissingKey(t *testing.T) {
	svc, _ := newTestService(t, newFakeRepo())

	_, err := svc.Get(context.Background(), "does.not.exist")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestSetInvalidatesCache(t *testing.T) {
	repo := newFakeRepo()
	repo.settings["billing.grace_period_days"] = repository.Setting{
		Key: "billing.grace_period_days", Value: "3", Type: TypeInt,
	}
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	if got := svc.GetInt(ctx, "billing.grace_period_days", 0); got != 3 {
		t.Fatalf("GetInt = %d, want 3", got)
	}

	_, err := svc.Set(ctx, repository.UpsertParams{
		Key: "billing.grace_period_days", Value: "7", Type: TypeInt, Group: "billing",
	})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}

	if got := svc.GetInt(ctx, "billing.grace_period_days", 0); got != 7 {
		t.Errorf("GetInt after Set = %d, want 7", got)
	}
}

func TestSetValidatesTypedValues(t *testing.T) {
	svc, _ := newTestService(t, newFakeRepo())
	ctx := context.Background()

	tests := []struct {
		name    string
		params  repository.UpsertParams
		wantErr bool
	}{
		{"valid bool", repository.UpsertParams{Key: "a", Value: "true", Type: TypeBool}, false},
		{"invalid bool", repository.UpsertParams{Key: "b", Value: "yes please", Type: TypeBool}, true},
		{"valid int", repository.UpsertParams{Key: "c", Value: "42", Type: TypeInt}, false},
		{"invalid int", repository.UpsertParams{Key: "d", Value: "forty-two", Type: TypeInt}, true},
		{"valid json", repository.UpsertParams{Key: "e", Value: `{"x":1}`, Type: TypeJSON}, false},
		{"invalid json", repository.UpsertParams{Key: "f", Value: `{"x":`, Type: TypeJSON}, true},
		{"empty key", repository.UpsertParams{Key: "", Value: "v"}, true},
		{"unknown type", repository.UpsertParams{Key: "g", Value: "v", Type: "float"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Set(ctx, tt.params)
			if (err != nil) != tt.wantErr {
				t.Errorf("Set(%q) error = %v, wantErr %v", tt.params.Key, err, tt.wantErr)
			}
			if err != nil && !apperr.Is(err, apperr.KindValidation) {
				t.Errorf("Set(%q) error kind = %v, want validation", tt.params.Key, err)
			}
		})
	}
}

func TestTypedGettersFallBack(t *testing.T) {
	repo := newFakeRepo()
	repo.settings["broken.bool"] = repository.Setting{Key: "broken.bool", Value: "maybe", Type: TypeBool}
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	if got := svc.GetBool(ctx, "missing.bool", true); !got {
		t.Error("GetBool missing key: want fallback true")
	}
	if got := svc.GetBool(ctx, "broken.bool", false); got {
		t.Error("GetBool unparseable value: want fallback false")
	}
	if got := svc.GetInt(ctx, "missing.int", 9); got != 9 {
		t.Errorf("GetInt missing key = %d, want fallback 9", got)
	}
	if got := svc.GetOrDefault(ctx, "missing.str", "dflt"); got != "dflt" {
		t.Errorf("GetOrDefault = %q, want %q", got, "dflt")
	}
}

func TestGetJSON(t *testing.T) {
	repo := newFakeRepo()
	repo.settings["features"] = repository.Setting{Key: "features", Value: `{"maxLeads": 50}`, Type: TypeJSON}
	svc, _ := newTestService(t, repo)

	var out struct {
		MaxLeads int `json:"maxLeads"`
	}
	if err := svc.GetJSON(context.Background(), "features", &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out.MaxLeads != 50 {
		t.Errorf("MaxLeads = %d, want 50", out.MaxLeads)
	}
}

func TestSeedDefaultsDoesNotOverwrite(t *testing.T) {
	repo := newFakeRepo()
	repo.settings["notifications.sms_enabled"] = repository.Setting{
		Key: "notifications.sms_enabled", Value: "true", Type: TypeBool, Group: "notifications",
	}
	svc, _ := newTestService(t, repo)

	defaults := []byte(`
- key: notifications.sms_enabled
  value: "false"
  type: boolean
  group: notifications
- key: notifications.email_enabled
  value: "true"
  type: boolean
  group: notifications
`)
	if err := svc.SeedDefaults(context.Background(), defaults); err != nil {
		t.Fatalf("SeedDefaults: %v", err)
	}

	if got := repo.settings["notifications.sms_enabled"].Value; got != "true" {
		t.Errorf("existing row overwritten: value = %q, want %q", got, "true")
	}
	if _, ok := repo.settings["notifications.email_enabled"]; !ok {
		t.Error("missing default was not inserted")
	}
}

func TestSeedDefaultsRejectsBadYAML(t *testing.T) {
	svc, _ := newTestService(t, newFakeRepo())
	if err := svc.SeedDefaults(context.Background(), []byte("key: [")); err == nil {
		t.Fatal("want parse error for malformed YAML")
	}
}

func TestCacheSurvivesRedisOutage(t *testing.T) {
	repo := newFakeRepo()
	repo.settings["k"] = repository.Setting{Key: "k", Value: "v", Type: TypeString}
	svc, mr := newTestService(t, repo)
	ctx := context.Background()

	mr.Close()

	value, err := svc.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get with cache down: %v", err)
	}
	if value != "v" {
		t.Errorf("value = %q, want %q", value, "v")
	}
}

func TestNilCacheDisablesCaching(t *testing.T) {
	repo := newFakeRepo()
	repo.settings["k"] = repository.Setting{Key: "k", Value: "v", Type: TypeString}
	svc := New(repo, nil, logger.New("development"))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.Get(ctx, "k"); err != nil {
			t.Fatalf("Get: %v", err)
		}
	}
	if repo.getCalls != 2 {
		t.Errorf("repo.getCalls = %d, want 2 (no cache in play)", repo.getCalls)
	}
}
