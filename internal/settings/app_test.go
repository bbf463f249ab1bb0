package settings

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/countboard/countboard/internal/models"
)

// fakeRepo serves settings from a map and counts reads.
type fakeRepo struct {
	settings map[string]*models.Setting
	gets     int
}

func (f *fakeRepo) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	f.gets++
	s, ok := f.settings[key]
	if !ok {
		return nil, ErrSettingNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeRepo) ListSettings(ctx context.Context) ([]models.Setting, error) {
	var out []models.Setting
	for _, s := range f.settings {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeRepo) UpsertSetting(ctx context.Context, req UpsertSettingRequest) (*models.Setting, error) {
	s := &models.Setting{Key: req.Key, Value: req.Value, Type: req.Type, Description: req.Description}
	f.settings[req.Key] = s
	return s, nil
}

func (f *fakeRepo) UpdateSettings(ctx context.Context, reqs []UpsertSettingRequest) error {
	for _, req := range reqs {
		if _, err := f.UpsertSetting(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

func withSetting(key, rawValue string) *fakeRepo {
	return &fakeRepo{settings: map[string]*models.Setting{
		key: {Key: key, Value: json.RawMessage(rawValue), Type: models.SettingTypeNumber},
	}}
}

func TestResultTime_Coercion(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"json number", `21`, 21},
		{"numeric string", `"18"`, 18},
		{"padded string", `" 9 "`, 9},
		{"boolean falls back", `true`, DefaultResultTime},
		{"non-numeric string falls back", `"evening"`, DefaultResultTime},
		{"fractional falls back", `19.5`, DefaultResultTime},
		{"out of range falls back", `37`, DefaultResultTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := withSetting(models.SettingResultTime, tt.raw)
			app := NewApp(repo, clockwork.NewFakeClock(), 0)

			got, err := app.ResultTime(context.Background())
			if err != nil {
				t.Fatalf("ResultTime() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResultTime() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestResultTime_DefaultWhenAbsent(t *testing.T) {
	repo := &fakeRepo{settings: map[string]*models.Setting{}}
	app := NewApp(repo, clockwork.NewFakeClock(), 0)

	got, err := app.ResultTime(context.Background())
	if err != nil {
		t.Fatalf("ResultTime() error: %v", err)
	}
	if got != DefaultResultTime {
		t.Errorf("ResultTime() = %d, want default %d", got, DefaultResultTime)
	}
}

func TestCountingClosedTime_SentinelDefault(t *testing.T) {
	repo := &fakeRepo{settings: map[string]*models.Setting{}}
	app := NewApp(repo, clockwork.NewFakeClock(), 0)

	got, err := app.CountingClosedTime(context.Background())
	if err != nil {
		t.Fatalf("CountingClosedTime() error: %v", err)
	}
	if got != NeverCloses {
		t.Errorf("CountingClosedTime() = %d, want %d", got, NeverCloses)
	}
}

func TestCache_ServesWithinTTLAndRefreshesAfter(t *testing.T) {
	repo := withSetting(models.SettingResultTime, `20`)
	clock := clockwork.NewFakeClock()
	app := NewApp(repo, clock, 2*time.Second)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := app.ResultTime(ctx); err != nil {
			t.Fatalf("ResultTime() error: %v", err)
		}
	}
	if repo.gets != 1 {
		t.Fatalf("repo reads within TTL = %d, want 1", repo.gets)
	}

	// Past the TTL the value is re-read, picking up the new hour.
	repo.settings[models.SettingResultTime].Value = json.RawMessage(`15`)
	clock.Advance(3 * time.Second)

	got, err := app.ResultTime(ctx)
	if err != nil {
		t.Fatalf("ResultTime() error: %v", err)
	}
	if got != 15 {
		t.Errorf("ResultTime() after TTL = %d, want 15", got)
	}
	if repo.gets != 2 {
		t.Errorf("repo reads after TTL = %d, want 2", repo.gets)
	}
}

func TestUpdateSetting_InvalidatesCache(t *testing.T) {
	repo := withSetting(models.SettingResultTime, `20`)
	clock := clockwork.NewFakeClock()
	app := NewApp(repo, clock, time.Minute)
	ctx := context.Background()

	if got, _ := app.ResultTime(ctx); got != 20 {
		t.Fatalf("ResultTime() = %d, want 20", got)
	}

	_, err := app.UpdateSetting(ctx, UpsertSettingRequest{
		Key:   models.SettingResultTime,
		Value: json.RawMessage(`22`),
		Type:  models.SettingTypeNumber,
	})
	if err != nil {
		t.Fatalf("UpdateSetting() error: %v", err)
	}

	if got, _ := app.ResultTime(ctx); got != 22 {
		t.Errorf("ResultTime() after update = %d, want 22", got)
	}
}
