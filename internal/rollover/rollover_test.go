package rollover_test

import (
	"context"
	"errors"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"placetime/backend/internal/db"
	apperrors "placetime/backend/internal/errors"
	"placetime/backend/internal/migrations"
	"placetime/backend/internal/model"
	"placetime/backend/internal/repository"
	"placetime/backend/internal/rollover"
	"placetime/backend/internal/week"
)

const owner = "owner-1"

var (
	cal          = week.NewCalendar(time.UTC)
	now          = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	currentWeek  = cal.Start(now)
	previousWeek = cal.Previous(currentWeek)
)

func setupStore(t *testing.T) *repository.Store {
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
	return repository.NewStore(database, db.DialectSQLite)
}

func newEngine(store *repository.Store) *rollover.Engine {
	return rollover.New(store, cal, func() time.Time { return now }, log.New(io.Discard, "", 0))
}

func seedGoal(t *testing.T, store *repository.Store, category model.Category, hours float64, weekStart time.Time) {
	t.Helper()
	goal := model.Goal{
		ID:          string(category) + "-" + weekStart.Format("20060102"),
		OwnerID:     owner,
		Category:    category,
		TargetHours: hours,
		WeekStart:   weekStart,
		Active:      true,
		CreatedAt:   weekStart,
		UpdatedAt:   weekStart,
	}
	if err := store.Goals.Upsert(context.Background(), &goal); err != nil {
		t.Fatalf("seed goal: %v", err)
	}
}

func seedSession(t *testing.T, store *repository.Store, id string, category model.Category, minutes int, weekStart time.Time) {
	t.Helper()
	started := weekStart.Add(24 * time.Hour)
	ended := started.Add(time.Duration(minutes) * time.Minute)
	session := model.LocationSession{
		ID:              id,
		OwnerID:         owner,
		Category:        category,
		PlaceID:         "place-" + string(category),
		StartedAt:       started,
		EndedAt:         &ended,
		DurationMinutes: minutes,
		WeekStart:       weekStart,
	}
	if err := store.Sessions.Insert(context.Background(), &session); err != nil {
		t.Fatalf("seed session: %v", err)
	}
}

func TestCompletionThreshold(t *testing.T) {
	cases := []struct {
		name      string
		minutes   int
		completed bool
	}{
		{"exactly ten hours", 600, true},
		{"one minute short", 599, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			store := setupStore(t)
			seedGoal(t, store, model.CategoryLibrary, 10, previousWeek)
			seedGoal(t, store, model.CategoryGym, 1, previousWeek)
			seedSession(t, store, "s-library", model.CategoryLibrary, tc.minutes, previousWeek)
			seedSession(t, store, "s-gym", model.CategoryGym, 60, previousWeek)

			result, err := newEngine(store).CheckAndHandleWeekTransition(ctx, owner)
			if err != nil {
				t.Fatalf("check: %v", err)
			}
			if !result.Rolled || result.Progress == nil {
				t.Fatalf("expected a finalized week, got %+v", result)
			}

			progress, err := store.Progress.Get(ctx, owner, previousWeek)
			if err != nil {
				t.Fatalf("get progress: %v", err)
			}
			if progress.LibraryCompleted != tc.completed || !progress.GymCompleted || progress.BarCompleted {
				t.Fatalf("unexpected progress %+v", progress)
			}
			if progress.AllGoalsCompleted {
				t.Fatalf("two categories cannot complete all goals")
			}
			if !progress.WeekEnd.Equal(currentWeek.Add(-time.Millisecond)) {
				t.Fatalf("unexpected week end %v", progress.WeekEnd)
			}
		})
	}
}

func TestSecondCheckIsNoop(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	for _, c := range model.Categories {
		seedGoal(t, store, c, 2, previousWeek)
		seedSession(t, store, "s-"+string(c), c, 120, previousWeek)
	}
	engine := newEngine(store)

	first, err := engine.CheckAndHandleWeekTransition(ctx, owner)
	if err != nil {
		t.Fatalf("first check: %v", err)
	}
	if !first.Rolled || first.CarriedGoals != 3 || first.DeletedSessions != 3 {
		t.Fatalf("unexpected first result %+v", first)
	}
	if first.Progress == nil || !first.Progress.AllGoalsCompleted {
		t.Fatalf("expected all goals completed, got %+v", first.Progress)
	}

	second, err := engine.CheckAndHandleWeekTransition(ctx, owner)
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if second.Rolled || second.CarriedGoals != 0 || second.Progress != nil {
		t.Fatalf("expected no-op, got %+v", second)
	}

	goals, err := store.Goals.ListActive(ctx, owner)
	if err != nil {
		t.Fatalf("list goals: %v", err)
	}
	if len(goals) != 3 {
		t.Fatalf("expected 3 active goals, got %d", len(goals))
	}
	for _, goal := range goals {
		if !week.Same(goal.WeekStart, currentWeek) || goal.TargetHours != 2 {
			t.Fatalf("unexpected carried goal %+v", goal)
		}
	}

	history, err := store.Progress.History(ctx, owner)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected one history row, got %d", len(history))
	}
}

func TestNothingCompletedWritesNoProgress(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	seedGoal(t, store, model.CategoryBar, 3, previousWeek)
	seedSession(t, store, "s-bar", model.CategoryBar, 30, previousWeek)

	result, err := newEngine(store).CheckAndHandleWeekTransition(ctx, owner)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !result.Rolled || result.Progress != nil || result.CarriedGoals != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if _, err := store.Progress.Get(ctx, owner, previousWeek); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected no progress row, got %v", err)
	}
	sessions, err := store.Sessions.ListByWeek(ctx, owner, previousWeek)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("expected finalized sessions to be pruned, got %d", len(sessions))
	}
}

func TestNoGoalsOrCurrentGoalsAreNoop(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	engine := newEngine(store)

	result, err := engine.CheckAndHandleWeekTransition(ctx, owner)
	if err != nil || result.Rolled {
		t.Fatalf("expected no-op without goals, got %+v, %v", result, err)
	}

	seedGoal(t, store, model.CategoryGym, 4, currentWeek)
	seedSession(t, store, "s-gym", model.CategoryGym, 300, currentWeek)
	result, err = engine.CheckAndHandleWeekTransition(ctx, owner)
	if err != nil || result.Rolled {
		t.Fatalf("expected no-op for current goals, got %+v, %v", result, err)
	}
	sessions, err := store.Sessions.ListByWeek(ctx, owner, currentWeek)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("current week sessions must survive, got %d", len(sessions))
	}
}

func TestCarryForwardKeepsExistingCurrentGoal(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	seedGoal(t, store, model.CategoryLibrary, 5, previousWeek)
	seedGoal(t, store, model.CategoryLibrary, 8, currentWeek)

	if _, err := newEngine(store).CheckAndHandleWeekTransition(ctx, owner); err != nil {
		t.Fatalf("check: %v", err)
	}

	goals, err := store.Goals.ListActive(ctx, owner)
	if err != nil {
		t.Fatalf("list goals: %v", err)
	}
	if len(goals) != 1 {
		t.Fatalf("expected a single active goal, got %+v", goals)
	}
	if goals[0].TargetHours != 8 || !week.Same(goals[0].WeekStart, currentWeek) {
		t.Fatalf("expected existing current goal to be kept, got %+v", goals[0])
	}
}

func TestOpenSessionSurvivesRollover(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	seedGoal(t, store, model.CategoryGym, 1, previousWeek)
	open := model.LocationSession{
		ID:        "open",
		OwnerID:   owner,
		Category:  model.CategoryGym,
		PlaceID:   "place-gym",
		StartedAt: currentWeek.Add(-30 * time.Minute),
		WeekStart: previousWeek,
	}
	if err := store.Sessions.Insert(ctx, &open); err != nil {
		t.Fatalf("insert open session: %v", err)
	}

	if _, err := newEngine(store).CheckAndHandleWeekTransition(ctx, owner); err != nil {
		t.Fatalf("check: %v", err)
	}
	if _, err := store.Sessions.GetOpen(ctx, owner); err != nil {
		t.Fatalf("expected open session to be kept: %v", err)
	}
}

func TestCancelledCheckRollsBack(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	seedGoal(t, store, model.CategoryGym, 1, previousWeek)
	seedSession(t, store, "s-gym", model.CategoryGym, 90, previousWeek)

	entered := make(chan struct{})
	release := make(chan struct{})
	engine := rollover.New(store, cal, func() time.Time {
		close(entered)
		<-release
		return now
	}, log.New(io.Discard, "", 0))

	errCh := make(chan error, 1)
	go func() {
		_, err := engine.CheckAndHandleWeekTransition(ctx, owner)
		errCh <- err
	}()

	<-entered
	engine.Cancel(owner)
	close(release)

	err := <-errCh
	if !errors.Is(err, apperrors.ErrRollover) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancelled rollover, got %v", err)
	}

	goals, err := store.Goals.ListActive(ctx, owner)
	if err != nil {
		t.Fatalf("list goals: %v", err)
	}
	if len(goals) != 1 || !week.Same(goals[0].WeekStart, previousWeek) {
		t.Fatalf("expected untouched stale goal, got %+v", goals)
	}
}

func TestStoreFailureIsRolloverFailure(t *testing.T) {
	ctx := context.Background()
	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "empty.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer database.Close()
	store := repository.NewStore(database, db.DialectSQLite)

	_, err = newEngine(store).CheckAndHandleWeekTransition(ctx, owner)
	if !errors.Is(err, apperrors.ErrRollover) || !errors.Is(err, apperrors.ErrStore) {
		t.Fatalf("expected rollover store failure, got %v", err)
	}
}
