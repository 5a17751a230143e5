package tracker

import (
	"context"
	"sync"
	"time"

	apperrors "placetime/backend/internal/errors"
	"placetime/backend/internal/model"
)

// SourceOptions is the delivery tier requested from a fix source.
type SourceOptions struct {
	Interval          time.Duration
	MaxAccuracyMeters float64
}

// FixSource delivers periodic fixes for one owner until ctx is done. The channel is closed
// when the source stops delivering, for example after permission is revoked. Subscribe
// returns ErrPermissionUnavailable when fixes cannot be obtained at all.
type FixSource interface {
	Subscribe(ctx context.Context, ownerID string, opts SourceOptions) (<-chan model.LocationFix, error)
}

// PublishResult reports what happened to a published fix.
type PublishResult string

const (
	PublishDelivered       PublishResult = "delivered"
	PublishSkippedInterval PublishResult = "skipped_interval"
	PublishSkippedAccuracy PublishResult = "skipped_accuracy"
)

// Feed is an in-process FixSource fed by Publish, typically from the device upload endpoint.
type Feed struct {
	mu     sync.Mutex
	subs   map[string]*subscription
	denied map[string]bool
}

type subscription struct {
	mu     sync.Mutex
	ch     chan model.LocationFix
	quit   chan struct{}
	opts   SourceOptions
	last   time.Time
	closed bool
	once   sync.Once
}

func NewFeed() *Feed {
	return &Feed{
		subs:   make(map[string]*subscription),
		denied: make(map[string]bool),
	}
}

func (f *Feed) Subscribe(ctx context.Context, ownerID string, opts SourceOptions) (<-chan model.LocationFix, error) {
	f.mu.Lock()
	if f.denied[ownerID] {
		f.mu.Unlock()
		return nil, apperrors.ErrPermissionUnavailable
	}
	previous := f.subs[ownerID]
	sub := &subscription{
		ch:   make(chan model.LocationFix),
		quit: make(chan struct{}),
		opts: opts,
	}
	f.subs[ownerID] = sub
	f.mu.Unlock()

	if previous != nil {
		previous.end()
	}

	go func() {
		select {
		case <-ctx.Done():
		case <-sub.quit:
		}
		f.remove(ownerID, sub)
		sub.end()
	}()

	return sub.ch, nil
}

// Publish hands fix to the owner's subscriber and returns once it has been received.
// Fixes arriving sooner than the subscribed interval, or less accurate than the tier
// allows, are skipped.
func (f *Feed) Publish(ctx context.Context, ownerID string, fix model.LocationFix) (PublishResult, error) {
	f.mu.Lock()
	sub := f.subs[ownerID]
	denied := f.denied[ownerID]
	f.mu.Unlock()

	if denied {
		return "", apperrors.ErrPermissionUnavailable
	}
	if sub == nil {
		return "", apperrors.ErrNotTracking
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()

	if sub.closed {
		return "", apperrors.ErrNotTracking
	}
	if sub.opts.MaxAccuracyMeters > 0 && fix.AccuracyMeters > sub.opts.MaxAccuracyMeters {
		return PublishSkippedAccuracy, nil
	}
	if !sub.last.IsZero() && fix.Timestamp.After(sub.last) && fix.Timestamp.Sub(sub.last) < sub.opts.Interval {
		return PublishSkippedInterval, nil
	}

	select {
	case sub.ch <- fix:
		if fix.Timestamp.After(sub.last) {
			sub.last = fix.Timestamp
		}
		return PublishDelivered, nil
	case <-sub.quit:
		return "", apperrors.ErrNotTracking
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// SetPermission grants or revokes fix delivery for an owner. Revoking ends any active
// subscription.
func (f *Feed) SetPermission(ownerID string, granted bool) {
	f.mu.Lock()
	var sub *subscription
	if granted {
		delete(f.denied, ownerID)
	} else {
		f.denied[ownerID] = true
		sub = f.subs[ownerID]
		delete(f.subs, ownerID)
	}
	f.mu.Unlock()

	if sub != nil {
		sub.end()
	}
}

func (f *Feed) Permitted(ownerID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.denied[ownerID]
}

func (f *Feed) remove(ownerID string, sub *subscription) {
	f.mu.Lock()
	if f.subs[ownerID] == sub {
		delete(f.subs, ownerID)
	}
	f.mu.Unlock()
}

// end stops delivery. quit is closed first so a blocked Publish releases sub.mu before
// the channel is closed.
func (s *subscription) end() {
	s.once.Do(func() {
		close(s.quit)
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
	})
}
