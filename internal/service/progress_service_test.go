package service_test

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"placetime/backend/internal/db"
	"placetime/backend/internal/migrations"
	"placetime/backend/internal/model"
	"placetime/backend/internal/repository"
	"placetime/backend/internal/rollover"
	"placetime/backend/internal/service"
	"placetime/backend/internal/week"
)

const owner = "owner-1"

var (
	cal = week.NewCalendar(time.UTC)
	now = time.Date(2026, 10, 14, 18, 0, 0, 0, time.UTC)
)

func clock() time.Time { return now }

func setupProgress(t *testing.T) (*repository.Store, *service.ProgressService) {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})
	if err := db.RunMigrations(database, db.DialectSQLite, migrations.FS, db.DialectSQLite.MigrationDir()); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	store := repository.NewStore(database, db.DialectSQLite)
	engine := rollover.New(store, cal, clock, log.New(io.Discard, "", 0))
	return store, service.NewProgressService(store, engine, cal, clock)
}

func setGoal(t *testing.T, store *repository.Store, category model.Category, hours float64) {
	t.Helper()
	goal := model.Goal{
		ID:          "goal-" + string(category),
		OwnerID:     owner,
		Category:    category,
		TargetHours: hours,
		WeekStart:   cal.Start(now),
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := store.Goals.Upsert(context.Background(), &goal); err != nil {
		t.Fatalf("upsert goal: %v", err)
	}
}

func completions(t *testing.T, store *repository.Store) []model.GoalCompletion {
	t.Helper()
	list, err := store.Completions.ListByWeek(context.Background(), owner, cal.Start(now))
	if err != nil {
		t.Fatalf("list completions: %v", err)
	}
	return list
}

func TestCurrentCountsOpenSession(t *testing.T) {
	ctx := context.Background()
	store, progress := setupProgress(t)
	setGoal(t, store, model.CategoryLibrary, 1)

	open := model.LocationSession{
		ID:        "open",
		OwnerID:   owner,
		Category:  model.CategoryLibrary,
		PlaceID:   "lib",
		StartedAt: now.Add(-70 * time.Minute),
		WeekStart: cal.Start(now),
	}
	if err := store.Sessions.Insert(ctx, &open); err != nil {
		t.Fatalf("insert session: %v", err)
	}

	for i := 0; i < 2; i++ {
		current, apiErr := progress.Current(ctx, owner)
		if apiErr != nil {
			t.Fatalf("current: %v", apiErr)
		}
		library := current.Categories[0]
		if library.Category != model.CategoryLibrary || !library.Completed || library.CompletedMinutes != 70 {
			t.Fatalf("unexpected library progress %+v", library)
		}
		if current.Categories[1].HasGoal || current.Categories[2].HasGoal {
			t.Fatalf("only library has a goal: %+v", current.Categories)
		}
	}

	if got := completions(t, store); len(got) != 1 || got[0].CompletedMinutes != 70 {
		t.Fatalf("expected exactly one completion, got %+v", got)
	}
}

func TestSessionClosedRecordsCompletion(t *testing.T) {
	ctx := context.Background()
	store, progress := setupProgress(t)
	setGoal(t, store, model.CategoryBar, 0.5)

	started := now.Add(-2 * time.Hour)
	ended := started.Add(29 * time.Minute)
	first := model.LocationSession{ID: "a", OwnerID: owner, Category: model.CategoryBar, PlaceID: "bar", StartedAt: started, EndedAt: &ended, DurationMinutes: 29, WeekStart: cal.Start(now)}
	if err := store.Sessions.Insert(ctx, &first); err != nil {
		t.Fatalf("insert session: %v", err)
	}
	if err := progress.SessionClosed(ctx, first); err != nil {
		t.Fatalf("session closed: %v", err)
	}
	if got := completions(t, store); len(got) != 0 {
		t.Fatalf("29 minutes must not complete a 30 minute goal, got %+v", got)
	}

	laterStart := now.Add(-time.Hour)
	laterEnd := laterStart.Add(time.Minute)
	second := model.LocationSession{ID: "b", OwnerID: owner, Category: model.CategoryBar, PlaceID: "bar", StartedAt: laterStart, EndedAt: &laterEnd, DurationMinutes: 1, WeekStart: cal.Start(now)}
	if err := store.Sessions.Insert(ctx, &second); err != nil {
		t.Fatalf("insert session: %v", err)
	}
	if err := progress.SessionClosed(ctx, second); err != nil {
		t.Fatalf("session closed: %v", err)
	}
	got := completions(t, store)
	if len(got) != 1 || got[0].Category != model.CategoryBar || got[0].CompletedMinutes != 30 {
		t.Fatalf("expected one bar completion at 30 minutes, got %+v", got)
	}
}

func TestStreaksAfterRollover(t *testing.T) {
	ctx := context.Background()
	store, progress := setupProgress(t)

	for i, weeksAgo := range []int{1, 2, 4} {
		ws := cal.Start(now)
		for j := 0; j < weeksAgo; j++ {
			ws = cal.Previous(ws)
		}
		snapshot := model.WeeklyProgress{OwnerID: owner, WeekStart: ws, WeekEnd: cal.End(ws), GymCompleted: true, CreatedAt: now}
		if i == 0 {
			snapshot.LibraryCompleted = true
		}
		if err := store.Progress.Upsert(ctx, &snapshot); err != nil {
			t.Fatalf("upsert progress: %v", err)
		}
	}

	streaks, apiErr := progress.Streaks(ctx, owner)
	if apiErr != nil {
		t.Fatalf("streaks: %v", apiErr)
	}
	if len(streaks) != 4 {
		t.Fatalf("expected 4 streaks, got %d", len(streaks))
	}
	library, gym, all := streaks[0], streaks[2], streaks[3]
	if library.CurrentStreak != 1 || library.BestStreak != 1 {
		t.Fatalf("unexpected library streak %+v", library)
	}
	if gym.CurrentStreak != 2 || gym.BestStreak != 2 || gym.TotalWeeksCompleted != 3 {
		t.Fatalf("unexpected gym streak %+v", gym)
	}
	if all.Category != nil || all.TotalWeeksCompleted != 0 {
		t.Fatalf("unexpected all-goals streak %+v", all)
	}

	if apiErr := progress.Reset(ctx, owner); apiErr != nil {
		t.Fatalf("reset: %v", apiErr)
	}
	history, apiErr := progress.History(ctx, owner)
	if apiErr != nil || len(history) != 0 {
		t.Fatalf("expected empty history after reset, got %v, %v", history, apiErr)
	}
}
