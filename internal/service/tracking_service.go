package service

import (
	"context"
	"errors"
	"time"

	apperrors "placetime/backend/internal/errors"
	"placetime/backend/internal/geo"
	"placetime/backend/internal/model"
	"placetime/backend/internal/repository"
	"placetime/backend/internal/rollover"
	"placetime/backend/internal/tracker"
	"placetime/backend/internal/week"
)

// TrackingService is the lifecycle surface of the geofence tracker: start and stop per
// owner, location permission, fix uploads and the session log.
type TrackingService struct {
	tracker  *tracker.Tracker
	feed     *tracker.Feed
	sessions *repository.SessionRepository
	rollover *rollover.Engine
	cal      week.Calendar
	now      func() time.Time
}

type FixInput struct {
	Latitude       float64
	Longitude      float64
	AccuracyMeters float64
	Timestamp      *time.Time
}

type FixResult struct {
	Result tracker.PublishResult `json:"result"`
	Status tracker.Status        `json:"status"`
}

func NewTrackingService(
	t *tracker.Tracker,
	feed *tracker.Feed,
	sessions *repository.SessionRepository,
	engine *rollover.Engine,
	cal week.Calendar,
	now func() time.Time,
) *TrackingService {
	if now == nil {
		now = time.Now
	}
	return &TrackingService{
		tracker:  t,
		feed:     feed,
		sessions: sessions,
		rollover: engine,
		cal:      cal,
		now:      now,
	}
}

func (s *TrackingService) Start(ctx context.Context, ownerID string) (tracker.Status, *apperrors.APIError) {
	if err := s.tracker.Start(ctx, ownerID); err != nil {
		return tracker.Status{}, apperrors.FromError(err, "failed to start tracking")
	}
	return s.tracker.Status(ownerID), nil
}

func (s *TrackingService) Stop(ctx context.Context, ownerID string) (tracker.Status, *apperrors.APIError) {
	if err := s.tracker.Stop(ctx, ownerID); err != nil {
		return tracker.Status{}, apperrors.FromError(err, "failed to stop tracking")
	}
	return s.tracker.Status(ownerID), nil
}

func (s *TrackingService) Status(ownerID string) tracker.Status {
	return s.tracker.Status(ownerID)
}

// SetPermission records the device's location permission. Granting it to an owner that
// is tracked but idle resubscribes the tracker.
func (s *TrackingService) SetPermission(ctx context.Context, ownerID string, granted bool) (tracker.Status, *apperrors.APIError) {
	s.feed.SetPermission(ownerID, granted)
	if granted {
		if status := s.tracker.Status(ownerID); status.Tracking && !status.Receiving {
			return s.Start(ctx, ownerID)
		}
	}
	return s.tracker.Status(ownerID), nil
}

// PublishFix hands an uploaded fix to the owner's tracker.
func (s *TrackingService) PublishFix(ctx context.Context, ownerID string, input FixInput) (*FixResult, *apperrors.APIError) {
	if !geo.ValidCoordinate(input.Latitude, input.Longitude) {
		return nil, apperrors.BadRequest("invalid_coordinates", "latitude must be within [-90, 90] and longitude within [-180, 180]")
	}
	if input.AccuracyMeters < 0 {
		return nil, apperrors.BadRequest("invalid_accuracy", "accuracyMeters must not be negative")
	}

	fix := model.LocationFix{
		Latitude:       input.Latitude,
		Longitude:      input.Longitude,
		AccuracyMeters: input.AccuracyMeters,
		Timestamp:      s.now().UTC(),
	}
	if input.Timestamp != nil {
		fix.Timestamp = input.Timestamp.UTC()
	}

	result, err := s.feed.Publish(ctx, ownerID, fix)
	if err != nil {
		return nil, apperrors.FromError(err, "failed to publish fix")
	}
	return &FixResult{Result: result, Status: s.tracker.Status(ownerID)}, nil
}

// Sessions lists the owner's sessions for a week, the current one when rawWeek is empty.
func (s *TrackingService) Sessions(ctx context.Context, ownerID, rawWeek string) ([]model.LocationSession, *apperrors.APIError) {
	weekStart := s.cal.Start(s.now())
	if rawWeek != "" {
		parsed, err := s.cal.Parse(rawWeek)
		if err != nil {
			return nil, apperrors.BadRequest("invalid_week", "week must be YYYY-MM-DD or a millisecond timestamp")
		}
		weekStart = parsed
	}
	sessions, err := s.sessions.ListByWeek(ctx, ownerID, weekStart)
	if err != nil {
		return nil, apperrors.Internal("failed to list sessions")
	}
	return sessions, nil
}

// Logout ends everything running on behalf of the owner: in-flight week checks are
// cancelled and tracking is stopped.
func (s *TrackingService) Logout(ctx context.Context, ownerID string) *apperrors.APIError {
	s.rollover.Cancel(ownerID)
	if err := s.tracker.Stop(ctx, ownerID); err != nil && !errors.Is(err, apperrors.ErrNotTracking) {
		return apperrors.FromError(err, "failed to stop tracking")
	}
	return nil
}
