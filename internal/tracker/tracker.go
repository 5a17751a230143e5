// Package tracker turns a stream of location fixes into place sessions. Each tracked
// owner has one consumer goroutine and every state change for an owner happens under
// that owner's lock, so at most one session per owner is ever open.
package tracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "placetime/backend/internal/errors"
	"placetime/backend/internal/model"
	"placetime/backend/internal/ownerlock"
	"placetime/backend/internal/week"
)

type Logger interface {
	Printf(format string, v ...any)
}

type PlaceLister interface {
	ListByOwner(ctx context.Context, ownerID string, category *model.Category) ([]model.Place, error)
}

// SessionObserver is told about every closed session, e.g. to record goal completions.
type SessionObserver interface {
	SessionClosed(ctx context.Context, session model.LocationSession) error
}

type Options struct {
	Source        FixSource
	SourceOptions SourceOptions
	Calendar      week.Calendar
	Observer      SessionObserver
	Logger        Logger
	NewID         func() string
}

type Status struct {
	Tracking         bool            `json:"tracking"`
	Receiving        bool            `json:"receiving"`
	Category         *model.Category `json:"category,omitempty"`
	SessionID        *string         `json:"sessionId,omitempty"`
	SessionStartedAt *time.Time      `json:"sessionStartedAt,omitempty"`
	LastFixAt        *time.Time      `json:"lastFixAt,omitempty"`
	LastError        string          `json:"lastError,omitempty"`
}

type Tracker struct {
	sessions SessionStore
	places   PlaceLister
	opts     Options

	ctx    context.Context
	cancel context.CancelFunc

	lifecycle *ownerlock.Locker
	process   *ownerlock.Locker

	mu     sync.Mutex
	owners map[string]*ownerState
}

type ownerState struct {
	machine *Machine
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
	lastErr error
}

func (s *ownerState) receiving() bool {
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

func New(sessions SessionStore, places PlaceLister, opts Options) *Tracker {
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Logger == nil {
		opts.Logger = discard{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{
		sessions:  sessions,
		places:    places,
		opts:      opts,
		ctx:       ctx,
		cancel:    cancel,
		lifecycle: ownerlock.New(),
		process:   ownerlock.New(),
		owners:    make(map[string]*ownerState),
	}
}

// Start begins tracking an owner. It is idempotent. When the fix source reports that
// permission is unavailable the owner is tracked but stays idle; no retry is scheduled.
func (t *Tracker) Start(ctx context.Context, ownerID string) error {
	unlock := t.lifecycle.Lock(ownerID)
	defer unlock()

	t.mu.Lock()
	state, exists := t.owners[ownerID]
	receiving := exists && state.receiving()
	t.mu.Unlock()

	if receiving {
		return nil
	}

	if !exists {
		machine := NewMachine(ownerID, t.sessions, t.opts.Calendar, t.opts.NewID, t.opts.Logger)
		releaseProcess := t.process.Lock(ownerID)
		err := machine.Adopt(ctx)
		releaseProcess()
		if err != nil {
			return err
		}
		state = &ownerState{machine: machine}
	}

	if t.opts.Source != nil {
		runCtx, cancel := context.WithCancel(t.ctx)
		fixes, err := t.opts.Source.Subscribe(runCtx, ownerID, t.opts.SourceOptions)
		switch {
		case errors.Is(err, apperrors.ErrPermissionUnavailable):
			cancel()
			t.opts.Logger.Printf("tracker: owner %s: %v; staying idle", ownerID, err)
			t.setErr(state, err)
		case err != nil:
			cancel()
			return err
		default:
			done := make(chan struct{})
			t.mu.Lock()
			state.cancel = cancel
			state.done = done
			state.lastErr = nil
			t.mu.Unlock()
			go t.consume(runCtx, ownerID, done, state, fixes)
		}
	}

	t.mu.Lock()
	t.owners[ownerID] = state
	t.mu.Unlock()

	t.opts.Logger.Printf("tracker: owner %s tracking started", ownerID)
	return nil
}

// Stop ends tracking for an owner and closes any open session at the last known fix
// timestamp. Stopping an owner that is not tracked is a no-op.
func (t *Tracker) Stop(ctx context.Context, ownerID string) error {
	unlock := t.lifecycle.Lock(ownerID)
	defer unlock()

	t.mu.Lock()
	state, ok := t.owners[ownerID]
	delete(t.owners, ownerID)
	t.mu.Unlock()
	if !ok {
		return nil
	}

	if state.cancel != nil {
		state.cancel()
		<-state.done
	}

	releaseProcess := t.process.Lock(ownerID)
	defer releaseProcess()

	state.stopped = true
	closed, err := state.machine.CloseOpen(ctx)
	if err != nil {
		return err
	}
	t.notify(ctx, closed)
	t.opts.Logger.Printf("tracker: owner %s tracking stopped", ownerID)
	return nil
}

// Shutdown stops every tracked owner.
func (t *Tracker) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	owners := make([]string, 0, len(t.owners))
	for ownerID := range t.owners {
		owners = append(owners, ownerID)
	}
	t.mu.Unlock()

	var errs []error
	for _, ownerID := range owners {
		if err := t.Stop(ctx, ownerID); err != nil {
			errs = append(errs, err)
		}
	}
	t.cancel()
	return errors.Join(errs...)
}

// Process applies one fix for a tracked owner.
func (t *Tracker) Process(ctx context.Context, ownerID string, fix model.LocationFix) (Transition, error) {
	t.mu.Lock()
	state, ok := t.owners[ownerID]
	t.mu.Unlock()
	if !ok {
		return Transition{}, apperrors.ErrNotTracking
	}
	return t.apply(ctx, ownerID, state, fix)
}

func (t *Tracker) Status(ownerID string) Status {
	t.mu.Lock()
	state, ok := t.owners[ownerID]
	t.mu.Unlock()
	if !ok {
		return Status{}
	}

	releaseProcess := t.process.Lock(ownerID)
	defer releaseProcess()

	status := Status{
		Tracking: true,
		Category: state.machine.Category(),
	}
	if open := state.machine.OpenSession(); open != nil {
		status.SessionID = &open.ID
		status.SessionStartedAt = &open.StartedAt
	}
	if last := state.machine.LastFix(); !last.IsZero() {
		status.LastFixAt = &last
	}
	t.mu.Lock()
	status.Receiving = state.receiving()
	if state.lastErr != nil {
		status.LastError = state.lastErr.Error()
	}
	t.mu.Unlock()
	return status
}

func (t *Tracker) consume(ctx context.Context, ownerID string, done chan struct{}, state *ownerState, fixes <-chan model.LocationFix) {
	defer close(done)
	// A fix that was handed over is processed to completion even if Stop races it.
	storeCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case fix, ok := <-fixes:
			if !ok {
				if ctx.Err() != nil {
					return
				}
				t.sourceEnded(storeCtx, ownerID, state)
				return
			}
			if _, err := t.apply(storeCtx, ownerID, state, fix); err != nil {
				t.opts.Logger.Printf("tracker: owner %s: process fix: %v", ownerID, err)
			}
		}
	}
}

func (t *Tracker) sourceEnded(ctx context.Context, ownerID string, state *ownerState) {
	releaseProcess := t.process.Lock(ownerID)
	defer releaseProcess()

	t.opts.Logger.Printf("tracker: owner %s: fix source closed; going idle", ownerID)
	t.setErr(state, apperrors.ErrPermissionUnavailable)
	closed, err := state.machine.CloseOpen(ctx)
	if err != nil {
		t.opts.Logger.Printf("tracker: owner %s: close session: %v", ownerID, err)
		t.setErr(state, err)
		return
	}
	t.notify(ctx, closed)
}

func (t *Tracker) apply(ctx context.Context, ownerID string, state *ownerState, fix model.LocationFix) (Transition, error) {
	releaseProcess := t.process.Lock(ownerID)
	defer releaseProcess()

	if state.stopped {
		return Transition{}, apperrors.ErrNotTracking
	}

	places, err := t.places.ListByOwner(ctx, ownerID, nil)
	if err != nil {
		err = apperrors.Store("load places", err)
		t.setErr(state, err)
		return Transition{}, err
	}

	tr, err := state.machine.Apply(ctx, fix, places)
	t.notify(ctx, tr.Closed)
	t.setErr(state, err)
	return tr, err
}

func (t *Tracker) notify(ctx context.Context, closed *model.LocationSession) {
	if closed == nil || t.opts.Observer == nil {
		return
	}
	if err := t.opts.Observer.SessionClosed(ctx, *closed); err != nil {
		t.opts.Logger.Printf("tracker: owner %s: session %s closed: observer: %v", closed.OwnerID, closed.ID, err)
	}
}

func (t *Tracker) setErr(state *ownerState, err error) {
	t.mu.Lock()
	state.lastErr = err
	t.mu.Unlock()
}

type discard struct{}

func (discard) Printf(string, ...any) {}
