package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/countboard/countboard/internal/models"
)

// SettingsRepository defines what the app layer needs from the repository
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (*models.Setting, error)
	ListSettings(ctx context.Context) ([]models.Setting, error)
	UpsertSetting(ctx context.Context, req UpsertSettingRequest) (*models.Setting, error)
	UpdateSettings(ctx context.Context, reqs []UpsertSettingRequest) error
}

// App provides typed access to settings. Reads go through a short-TTL cache
// so that gated operations hitting settings on every call don't hammer the
// store, while staleness stays bounded to a few seconds.
type App struct {
	repo  SettingsRepository
	clock clockwork.Clock
	ttl   time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	setting   *models.Setting // nil means "known absent"
	fetchedAt time.Time
}

// NewApp creates a new settings App. A non-positive ttl disables caching.
func NewApp(repo SettingsRepository, clock clockwork.Clock, ttl time.Duration) *App {
	return &App{
		repo:  repo,
		clock: clock,
		ttl:   ttl,
		cache: make(map[string]cacheEntry),
	}
}

// ResultTime returns the hour [0,23] at which the leaderboard becomes
// visible and counting locks. Absent or malformed values fall back to the
// default of 20 (8 PM IST); storage faults propagate.
func (a *App) ResultTime(ctx context.Context) (int, error) {
	return a.hourSetting(ctx, models.SettingResultTime, DefaultResultTime)
}

// CountingClosedTime returns the hour at which counting locks independently
// of the result time. 24 means counting never closes. Note: this setting is
// not currently enforced by the counting gate; it is surfaced here as the
// extension point.
func (a *App) CountingClosedTime(ctx context.Context) (int, error) {
	return a.hourSetting(ctx, models.SettingCountingClosedTime, NeverCloses)
}

// GetSetting returns one setting, from cache when fresh.
func (a *App) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	return a.cached(ctx, key)
}

// ListSettings returns all settings, bypassing the cache (admin view).
func (a *App) ListSettings(ctx context.Context) ([]models.Setting, error) {
	out, err := a.repo.ListSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	return out, nil
}

// UpdateSetting creates or overwrites one setting and invalidates its cache
// entry.
func (a *App) UpdateSetting(ctx context.Context, req UpsertSettingRequest) (*models.Setting, error) {
	if req.Key == "" {
		return nil, errors.New("setting key is required")
	}
	setting, err := a.repo.UpsertSetting(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update setting: %w", err)
	}
	a.invalidate(req.Key)

	log.Info().Str("key", setting.Key).RawJSON("value", setting.Value).Msg("setting updated")
	return setting, nil
}

// UpdateSettings applies several upserts atomically and invalidates the
// affected cache entries.
func (a *App) UpdateSettings(ctx context.Context, reqs []UpsertSettingRequest) error {
	for _, req := range reqs {
		if req.Key == "" {
			return errors.New("setting key is required")
		}
	}
	if err := a.repo.UpdateSettings(ctx, reqs); err != nil {
		return err
	}
	for _, req := range reqs {
		a.invalidate(req.Key)
	}
	log.Info().Int("updated", len(reqs)).Msg("settings updated")
	return nil
}

func (a *App) hourSetting(ctx context.Context, key string, defaultHour int) (int, error) {
	setting, err := a.cached(ctx, key)
	if err != nil {
		return 0, err
	}
	if setting == nil {
		return defaultHour, nil
	}

	hour, ok := coerceHour(setting.Value)
	if !ok || hour < 0 || hour > 24 {
		log.Warn().
			Str("key", key).
			RawJSON("value", setting.Value).
			Int("default", defaultHour).
			Msg("setting value is not a valid hour, using default")
		return defaultHour, nil
	}
	return hour, nil
}

// cached returns the setting for key, with nil meaning "absent". Both hits
// and misses are cached for the TTL.
func (a *App) cached(ctx context.Context, key string) (*models.Setting, error) {
	if a.ttl > 0 {
		a.mu.RLock()
		entry, ok := a.cache[key]
		a.mu.RUnlock()
		if ok && a.clock.Now().Sub(entry.fetchedAt) < a.ttl {
			return entry.setting, nil
		}
	}

	setting, err := a.repo.GetSetting(ctx, key)
	if err != nil && !errors.Is(err, ErrSettingNotFound) {
		return nil, err
	}

	if a.ttl > 0 {
		a.mu.Lock()
		a.cache[key] = cacheEntry{setting: setting, fetchedAt: a.clock.Now()}
		a.mu.Unlock()
	}
	return setting, nil
}

func (a *App) invalidate(key string) {
	a.mu.Lock()
	delete(a.cache, key)
	a.mu.Unlock()
}

// coerceHour interprets a loosely typed JSON setting value (number or
// numeric string) as an hour.
func coerceHour(raw json.RawMessage) (int, bool) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	switch val := v.(type) {
	case float64:
		if val != math.Trunc(val) {
			return 0, false
		}
		return int(val), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
