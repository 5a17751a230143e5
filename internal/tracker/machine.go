package tracker

import (
	"context"
	"errors"
	"time"

	apperrors "placetime/backend/internal/errors"
	"placetime/backend/internal/geo"
	"placetime/backend/internal/model"
	"placetime/backend/internal/repository"
	"placetime/backend/internal/week"
)

type SessionStore interface {
	Insert(ctx context.Context, session *model.LocationSession) error
	Close(ctx context.Context, session *model.LocationSession) error
	GetOpen(ctx context.Context, ownerID string) (*model.LocationSession, error)
}

// Transition describes what one fix did to the owner's state.
type Transition struct {
	From   *model.Category
	To     *model.Category
	Opened *model.LocationSession
	Closed *model.LocationSession
}

func (t Transition) Changed() bool {
	return t.Opened != nil || t.Closed != nil
}

// Machine is the per-owner Idle / InPlace(category) state. It is not safe for concurrent
// use; the tracker serializes calls per owner.
type Machine struct {
	ownerID  string
	sessions SessionStore
	cal      week.Calendar
	newID    func() string
	logger   Logger

	open    *model.LocationSession
	lastFix time.Time
}

func NewMachine(ownerID string, sessions SessionStore, cal week.Calendar, newID func() string, logger Logger) *Machine {
	return &Machine{
		ownerID:  ownerID,
		sessions: sessions,
		cal:      cal,
		newID:    newID,
		logger:   logger,
	}
}

// Category returns the current place category, or nil when idle.
func (m *Machine) Category() *model.Category {
	if m.open == nil {
		return nil
	}
	c := m.open.Category
	return &c
}

func (m *Machine) OpenSession() *model.LocationSession {
	if m.open == nil {
		return nil
	}
	s := *m.open
	return &s
}

func (m *Machine) LastFix() time.Time {
	return m.lastFix
}

// Adopt loads a session left open by an earlier process so it is continued, not duplicated.
func (m *Machine) Adopt(ctx context.Context) error {
	open, err := m.sessions.GetOpen(ctx, m.ownerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return apperrors.Store("adopt open session", err)
	}
	m.open = open
	if open.StartedAt.After(m.lastFix) {
		m.lastFix = open.StartedAt
	}
	return nil
}

// Apply feeds one fix through the state machine against the owner's places.
func (m *Machine) Apply(ctx context.Context, fix model.LocationFix, places []model.Place) (Transition, error) {
	from := m.Category()
	tr := Transition{From: from, To: from}

	if !m.lastFix.IsZero() && fix.Timestamp.Before(m.lastFix) {
		m.logger.Printf("tracker: owner %s dropped out-of-order fix at %s (last %s)", m.ownerID, fix.Timestamp.Format(time.RFC3339), m.lastFix.Format(time.RFC3339))
		return tr, nil
	}
	m.lastFix = fix.Timestamp

	place, matched := geo.Match(places, fix)
	if m.open != nil && matched && place.Category == m.open.Category {
		return tr, nil
	}
	if m.open == nil && !matched {
		return tr, nil
	}

	if m.open != nil {
		closed, err := m.closeAt(ctx, fix.Timestamp)
		if err != nil {
			return tr, err
		}
		tr.Closed = closed
		tr.To = nil
	}

	if matched {
		opened, err := m.openAt(ctx, place, fix.Timestamp)
		if err != nil {
			return tr, err
		}
		tr.Opened = opened
		tr.To = m.Category()
	}
	return tr, nil
}

// CloseOpen ends any open session at the last known fix timestamp.
func (m *Machine) CloseOpen(ctx context.Context) (*model.LocationSession, error) {
	if m.open == nil {
		return nil, nil
	}
	end := m.lastFix
	if end.Before(m.open.StartedAt) {
		end = m.open.StartedAt
	}
	return m.closeAt(ctx, end)
}

func (m *Machine) openAt(ctx context.Context, place model.Place, at time.Time) (*model.LocationSession, error) {
	session := &model.LocationSession{
		ID:        m.newID(),
		OwnerID:   m.ownerID,
		Category:  place.Category,
		PlaceID:   place.ID,
		StartedAt: at,
		WeekStart: m.cal.Start(at),
	}
	if err := m.sessions.Insert(ctx, session); err != nil {
		return nil, apperrors.Store("open session", err)
	}
	m.open = session
	opened := *session
	return &opened, nil
}

func (m *Machine) closeAt(ctx context.Context, end time.Time) (*model.LocationSession, error) {
	if m.open == nil {
		m.logger.Printf("tracker: owner %s: %v", m.ownerID, apperrors.Invariant("close without an open session"))
		return nil, nil
	}
	closed := *m.open
	closed.EndedAt = &end
	closed.DurationMinutes = model.DurationMinutes(closed.StartedAt, end)

	err := m.sessions.Close(ctx, &closed)
	if errors.Is(err, repository.ErrNotFound) {
		m.logger.Printf("tracker: owner %s: %v", m.ownerID, apperrors.Invariant("session %s was already closed or removed", closed.ID))
		m.open = nil
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Store("close session", err)
	}
	m.open = nil
	return &closed, nil
}
