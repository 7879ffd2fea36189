package service

import "context"

// SettingsRepository defines the persistence operations required by the
// settings service.
type SettingsRepository interface {
	// Get returns the stored value and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set upserts the value under key, last write wins.
	Set(ctx context.Context, key, value string) error
}

// SettingsService exposes the idempotent key/value settings façade used for
// feature flags and operational configuration.
type SettingsService struct {
	repo SettingsRepository
}

// NewSettingsService constructs a SettingsService with the provided
// repository.
func NewSettingsService(repo SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

// Get returns the value stored under key, with presence flag.
func (s *SettingsService) Get(ctx context.Context, key string) (string, bool, error) {
	return s.repo.Get(ctx, key)
}

// Set stores value under key, overwriting any previous value.
func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	return s.repo.Set(ctx, key, value)
}
