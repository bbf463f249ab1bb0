package counting

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/countboard/countboard/internal/events"
	"github.com/countboard/countboard/internal/models"
	"github.com/countboard/countboard/internal/timegate"
)

// memRepo mimics the Postgres repository: every mutation is atomic under
// one lock, the way the real upserts are atomic in one statement.
type memRepo struct {
	mu       sync.Mutex
	counters map[string]*models.DailyCount
}

func newMemRepo() *memRepo {
	return &memRepo{counters: make(map[string]*models.DailyCount)}
}

func key(userID uuid.UUID, day time.Time) string {
	return userID.String() + "/" + day.Format("2006-01-02")
}

func (m *memRepo) get(userID uuid.UUID, day time.Time) *models.DailyCount {
	c, ok := m.counters[key(userID, day)]
	if !ok {
		c = &models.DailyCount{UserID: userID, Day: day, Count: 0, IsActive: true}
		m.counters[key(userID, day)] = c
	}
	return c
}

func (m *memRepo) EnsureCounter(ctx context.Context, userID uuid.UUID, day time.Time) (*models.DailyCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.get(userID, day)
	copied := *c
	return &copied, nil
}

func (m *memRepo) IncrementCount(ctx context.Context, userID uuid.UUID, day time.Time) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.get(userID, day)
	if c.IsActive {
		c.Count++
	}
	return c.Count, c.IsActive, nil
}

func (m *memRepo) SetCount(ctx context.Context, userID uuid.UUID, day time.Time, value int) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.get(userID, day)
	c.Count = value
	return c.Count, c.IsActive, nil
}

func (m *memRepo) ToggleActive(ctx context.Context, userID uuid.UUID, day time.Time) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.get(userID, day)
	c.IsActive = !c.IsActive
	return c.Count, c.IsActive, nil
}

func (m *memRepo) ListCountersByDay(ctx context.Context, day time.Time) ([]models.DailyCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.DailyCount
	for _, c := range m.counters {
		if c.Day.Format("2006-01-02") == day.Format("2006-01-02") {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memRepo) ListCountersByUser(ctx context.Context, userID uuid.UUID) ([]models.DailyCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.DailyCount
	for _, c := range m.counters {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	// newest first
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Day.After(out[i].Day) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (m *memRepo) SumCountsByDay(ctx context.Context, from, to time.Time) (map[time.Time]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[time.Time]int)
	for _, c := range m.counters {
		if !c.Day.Before(from) && !c.Day.After(to) {
			out[c.Day] += c.Count
		}
	}
	return out, nil
}

func (m *memRepo) TotalCounts(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, c := range m.counters {
		total += c.Count
	}
	return total, nil
}

func (m *memRepo) TopUsersByTotal(ctx context.Context, limit int) ([]UserTotal, error) {
	return nil, nil
}

// fixedSettings returns the same thresholds on every read.
type fixedSettings struct {
	resultTime int
}

func (f fixedSettings) ResultTime(ctx context.Context) (int, error)         { return f.resultTime, nil }
func (f fixedSettings) CountingClosedTime(ctx context.Context) (int, error) { return 24, nil }

// capturingPublisher records published events.
type capturingPublisher struct {
	mu     sync.Mutex
	events []events.CountEvent
}

func (p *capturingPublisher) Publish(ctx context.Context, event events.CountEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type fixture struct {
	app   *App
	repo  *memRepo
	clock *clockwork.FakeClock
	pub   *capturingPublisher
}

// newFixture builds an App at the given IST hour with resultTime as the gate.
func newFixture(t *testing.T, istHour, resultTime int) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 10, istHour, 0, 0, 0, timegate.IST))
	repo := newMemRepo()
	pub := &capturingPublisher{}
	app := NewApp(repo, fixedSettings{resultTime: resultTime}, timegate.NewGate(clock), pub)
	return &fixture{app: app, repo: repo, clock: clock, pub: pub}
}

func TestIncrement_BeforeResultTime(t *testing.T) {
	f := newFixture(t, 14, 20)
	userID := uuid.New()
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		got, err := f.app.Increment(ctx, userID)
		if err != nil {
			t.Fatalf("Increment() error: %v", err)
		}
		if got != want {
			t.Errorf("Increment() = %d, want %d", got, want)
		}
	}
	if len(f.pub.events) != 3 {
		t.Errorf("published %d events, want 3", len(f.pub.events))
	}
}

func TestIncrement_AfterResultTime(t *testing.T) {
	f := newFixture(t, 21, 20)
	userID := uuid.New()

	_, err := f.app.Increment(context.Background(), userID)
	if !errors.Is(err, ErrCountingClosed) {
		t.Errorf("Increment() error = %v, want ErrCountingClosed", err)
	}
}

func TestIncrement_ExactlyAtResultTime(t *testing.T) {
	f := newFixture(t, 20, 20)

	_, err := f.app.Increment(context.Background(), uuid.New())
	if !errors.Is(err, ErrCountingClosed) {
		t.Errorf("Increment() at the threshold error = %v, want ErrCountingClosed", err)
	}
}

func TestIncrement_ClosedWinsOverPaused(t *testing.T) {
	f := newFixture(t, 21, 20)
	userID := uuid.New()
	ctx := context.Background()

	if _, err := f.app.ToggleActive(ctx, userID); err != nil {
		t.Fatalf("ToggleActive() error: %v", err)
	}
	_, err := f.app.Increment(ctx, userID)
	if !errors.Is(err, ErrCountingClosed) {
		t.Errorf("Increment() error = %v, want ErrCountingClosed regardless of pause", err)
	}
}

func TestIncrement_Paused(t *testing.T) {
	f := newFixture(t, 10, 20)
	userID := uuid.New()
	ctx := context.Background()

	if _, err := f.app.Increment(ctx, userID); err != nil {
		t.Fatalf("Increment() error: %v", err)
	}
	if _, err := f.app.ToggleActive(ctx, userID); err != nil {
		t.Fatalf("ToggleActive() error: %v", err)
	}

	_, err := f.app.Increment(ctx, userID)
	if !errors.Is(err, ErrCountingPaused) {
		t.Fatalf("Increment() error = %v, want ErrCountingPaused", err)
	}

	// The paused increment must not have touched the stored count.
	status, err := f.app.EnsureToday(ctx, userID)
	if err != nil {
		t.Fatalf("EnsureToday() error: %v", err)
	}
	if status.Count != 1 {
		t.Errorf("count after paused increment = %d, want 1", status.Count)
	}
}

func TestToggleActive_AlternatesAtAnyHour(t *testing.T) {
	// Toggling is never time-gated, so run it after the result time.
	f := newFixture(t, 22, 20)
	userID := uuid.New()
	ctx := context.Background()

	want := false // fresh counter is active; first toggle pauses
	for i := 0; i < 4; i++ {
		got, err := f.app.ToggleActive(ctx, userID)
		if err != nil {
			t.Fatalf("ToggleActive() #%d error: %v", i+1, err)
		}
		if got != want {
			t.Errorf("ToggleActive() #%d = %v, want %v", i+1, got, want)
		}
		want = !want
	}
}

func TestSync_SetsExactValue(t *testing.T) {
	f := newFixture(t, 14, 20)
	userID := uuid.New()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := f.app.Increment(ctx, userID); err != nil {
			t.Fatalf("Increment() error: %v", err)
		}
	}

	got, err := f.app.Sync(ctx, userID, 7)
	if err != nil {
		t.Fatalf("Sync() error: %v", err)
	}
	if got != 7 {
		t.Errorf("Sync() = %d, want 7", got)
	}
}

func TestSync_Gated(t *testing.T) {
	f := newFixture(t, 21, 20)

	_, err := f.app.Sync(context.Background(), uuid.New(), 7)
	if !errors.Is(err, ErrCountingClosed) {
		t.Errorf("Sync() error = %v, want ErrCountingClosed", err)
	}
}

func TestSync_RejectsNegative(t *testing.T) {
	f := newFixture(t, 14, 20)

	if _, err := f.app.Sync(context.Background(), uuid.New(), -1); err == nil {
		t.Error("Sync(-1) succeeded, want error")
	}
}

func TestEnsureToday_MaterializesOnce(t *testing.T) {
	f := newFixture(t, 14, 20)
	userID := uuid.New()
	ctx := context.Background()

	first, err := f.app.EnsureToday(ctx, userID)
	if err != nil {
		t.Fatalf("EnsureToday() error: %v", err)
	}
	if first.Count != 0 || !first.IsActive || first.IsCountingClosed {
		t.Errorf("fresh status = %+v, want count=0 active open", first)
	}

	second, err := f.app.EnsureToday(ctx, userID)
	if err != nil {
		t.Fatalf("EnsureToday() error: %v", err)
	}
	if *first != *second {
		t.Errorf("EnsureToday() not idempotent: %+v vs %+v", first, second)
	}
	if len(f.repo.counters) != 1 {
		t.Errorf("stored records = %d, want exactly 1", len(f.repo.counters))
	}
}

func TestEnsureToday_ReportsClosedGate(t *testing.T) {
	f := newFixture(t, 21, 20)

	status, err := f.app.EnsureToday(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("EnsureToday() error: %v", err)
	}
	if !status.IsCountingClosed {
		t.Error("IsCountingClosed = false after result time, want true")
	}
}

func TestConcurrentIncrements(t *testing.T) {
	f := newFixture(t, 10, 20)
	userID := uuid.New()
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := f.app.Increment(ctx, userID); err != nil {
				t.Errorf("Increment() error: %v", err)
			}
		}()
	}
	wg.Wait()

	status, err := f.app.EnsureToday(ctx, userID)
	if err != nil {
		t.Fatalf("EnsureToday() error: %v", err)
	}
	if status.Count != n {
		t.Errorf("count after %d concurrent increments = %d, want %d", n, status.Count, n)
	}
}

func TestDayBoundary_DistinctRecords(t *testing.T) {
	// Result time 24 keeps the gate open across midnight for this test.
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 10, 23, 59, 0, 0, timegate.IST))
	repo := newMemRepo()
	app := NewApp(repo, fixedSettings{resultTime: 24}, timegate.NewGate(clock), events.NoopPublisher{})
	userID := uuid.New()
	ctx := context.Background()

	if _, err := app.Increment(ctx, userID); err != nil {
		t.Fatalf("Increment() error: %v", err)
	}

	clock.Advance(2 * time.Minute) // 00:01 IST next day

	status, err := app.EnsureToday(ctx, userID)
	if err != nil {
		t.Fatalf("EnsureToday() error: %v", err)
	}
	if status.Count != 0 {
		t.Errorf("new day count = %d, want fresh 0", status.Count)
	}
	if len(repo.counters) != 2 {
		t.Errorf("stored records across boundary = %d, want 2", len(repo.counters))
	}

	history, err := app.History(ctx, userID)
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if history.TotalCount != 1 || history.DaysActive != 2 {
		t.Errorf("history = total %d over %d days, want total 1 over 2 days",
			history.TotalCount, history.DaysActive)
	}
}

func TestGateReevaluatedPerCall(t *testing.T) {
	f := newFixture(t, 19, 20)
	userID := uuid.New()
	ctx := context.Background()

	if _, err := f.app.Increment(ctx, userID); err != nil {
		t.Fatalf("Increment() before gate error: %v", err)
	}

	f.clock.Advance(time.Hour) // 20:00 — gate flips

	_, err := f.app.Increment(ctx, userID)
	if !errors.Is(err, ErrCountingClosed) {
		t.Errorf("Increment() after gate flip error = %v, want ErrCountingClosed", err)
	}
}
