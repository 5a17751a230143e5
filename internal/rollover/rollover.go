// Package rollover finalizes past weeks: it snapshots goal completion into weekly
// progress, prunes the finalized sessions and carries goals into the current week.
package rollover

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "placetime/backend/internal/errors"
	"placetime/backend/internal/model"
	"placetime/backend/internal/ownerlock"
	"placetime/backend/internal/repository"
	"placetime/backend/internal/week"
)

type Logger interface {
	Printf(format string, v ...any)
}

// Result reports what a check did. Rolled is false when the owner was already current.
type Result struct {
	Rolled            bool                  `json:"rolled"`
	CurrentWeekStart  time.Time             `json:"currentWeekStart"`
	PreviousWeekStart *time.Time            `json:"previousWeekStart,omitempty"`
	Progress          *model.WeeklyProgress `json:"progress,omitempty"`
	CarriedGoals      int                   `json:"carriedGoals"`
	DeletedSessions   int64                 `json:"deletedSessions"`
}

type Engine struct {
	store  *repository.Store
	cal    week.Calendar
	now    func() time.Time
	logger Logger
	newID  func() string

	locks *ownerlock.Locker

	mu       sync.Mutex
	seq      uint64
	inflight map[string]map[uint64]context.CancelFunc
}

func New(store *repository.Store, cal week.Calendar, now func() time.Time, logger Logger) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		store:    store,
		cal:      cal,
		now:      now,
		logger:   logger,
		newID:    uuid.NewString,
		locks:    ownerlock.New(),
		inflight: make(map[string]map[uint64]context.CancelFunc),
	}
}

// CheckAndHandleWeekTransition finalizes the owner's stale week, if any. All store writes
// happen in one transaction, so a failed or cancelled check leaves nothing behind and can
// simply be called again.
func (e *Engine) CheckAndHandleWeekTransition(ctx context.Context, ownerID string) (Result, error) {
	ctx, done := e.track(ctx, ownerID)
	defer done()

	unlock := e.locks.Lock(ownerID)
	defer unlock()

	now := e.now()
	current := e.cal.Start(now)
	result := Result{CurrentWeekStart: current}

	if err := ctx.Err(); err != nil {
		return result, apperrors.Rollover(err)
	}

	goals, err := e.store.Goals.ListActive(ctx, ownerID)
	if err != nil {
		return result, apperrors.Rollover(err)
	}
	if len(goals) == 0 {
		return result, nil
	}

	stale := make([]model.Goal, 0, len(goals))
	var previous time.Time
	for _, goal := range goals {
		if !goal.WeekStart.Before(current) {
			continue
		}
		stale = append(stale, goal)
		if goal.WeekStart.After(previous) {
			previous = goal.WeekStart
		}
	}
	if len(stale) == 0 {
		return result, nil
	}

	err = e.store.InTx(ctx, func(tx *repository.Store) error {
		progress := model.WeeklyProgress{
			OwnerID:   ownerID,
			WeekStart: previous,
			WeekEnd:   e.cal.End(previous),
			CreatedAt: now,
		}
		categories := make(map[model.Category]bool, len(model.Categories))
		for _, goal := range stale {
			if !week.Same(goal.WeekStart, previous) {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			minutes, err := tx.Sessions.SumMinutes(ctx, ownerID, goal.Category, previous)
			if err != nil {
				return err
			}
			completed := model.GoalCompleted(goal.TargetHours, minutes)
			categories[goal.Category] = true
			if completed {
				progress.SetCompleted(goal.Category, true)
			}
		}
		progress.AllGoalsCompleted = len(categories) == len(model.Categories) &&
			progress.LibraryCompleted && progress.BarCompleted && progress.GymCompleted

		if progress.AnyCompleted() {
			if err := tx.Progress.Upsert(ctx, &progress); err != nil {
				return err
			}
			result.Progress = &progress
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		deleted, err := tx.Sessions.DeleteFinalized(ctx, ownerID, previous)
		if err != nil {
			return err
		}
		result.DeletedSessions = deleted

		if err := tx.Goals.DeactivateBefore(ctx, ownerID, current, now); err != nil {
			return err
		}

		seen := make(map[model.Category]bool, len(model.Categories))
		for _, goal := range stale {
			// Newest stale goal per category wins; goals come back newest week first.
			if seen[goal.Category] {
				continue
			}
			seen[goal.Category] = true
			if err := ctx.Err(); err != nil {
				return err
			}
			carried := model.Goal{
				ID:          e.newID(),
				OwnerID:     ownerID,
				Category:    goal.Category,
				TargetHours: goal.TargetHours,
				WeekStart:   current,
				Active:      true,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := tx.Goals.CarryForward(ctx, &carried); err != nil {
				return err
			}
			result.CarriedGoals++
		}
		return ctx.Err()
	})
	if err != nil {
		return Result{CurrentWeekStart: current}, apperrors.Rollover(err)
	}

	result.Rolled = true
	result.PreviousWeekStart = &previous
	e.logf("rollover: owner %s: finalized week %s (completed=%t, carried %d goals, pruned %d sessions)",
		ownerID, previous.Format("2006-01-02"), result.Progress != nil, result.CarriedGoals, result.DeletedSessions)
	return result, nil
}

// Cancel aborts every in-flight check of the owner. Their transactions roll back.
func (e *Engine) Cancel(ownerID string) {
	e.mu.Lock()
	checks := e.inflight[ownerID]
	delete(e.inflight, ownerID)
	e.mu.Unlock()

	for _, cancel := range checks {
		cancel()
	}
}

func (e *Engine) track(ctx context.Context, ownerID string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)

	e.mu.Lock()
	e.seq++
	token := e.seq
	if e.inflight[ownerID] == nil {
		e.inflight[ownerID] = make(map[uint64]context.CancelFunc)
	}
	e.inflight[ownerID][token] = cancel
	e.mu.Unlock()

	return ctx, func() {
		e.mu.Lock()
		if checks := e.inflight[ownerID]; checks != nil {
			delete(checks, token)
			if len(checks) == 0 {
				delete(e.inflight, ownerID)
			}
		}
		e.mu.Unlock()
		cancel()
	}
}

func (e *Engine) logf(format string, v ...any) {
	if e.logger != nil {
		e.logger.Printf(format, v...)
	}
}
