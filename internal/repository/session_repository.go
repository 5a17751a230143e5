package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	apperrors "placetime/backend/internal/errors"
	"placetime/backend/internal/model"
)

type SessionRepository struct {
	c conn
}

const sessionColumns = `id, owner_id, category, place_id, started_at, ended_at, duration_minutes, week_start`

func (r *SessionRepository) Insert(ctx context.Context, session *model.LocationSession) error {
	_, err := r.c.exec(
		ctx,
		`INSERT INTO location_sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.OwnerID,
		string(session.Category),
		session.PlaceID,
		toMillis(session.StartedAt),
		nullableMillis(session.EndedAt),
		session.DurationMinutes,
		toMillis(session.WeekStart),
	)
	if err != nil {
		return apperrors.Store("insert session", err)
	}
	return nil
}

// Close sets the end and duration of an open session. It returns ErrNotFound when the
// session does not exist or is already closed.
func (r *SessionRepository) Close(ctx context.Context, session *model.LocationSession) error {
	if session.EndedAt == nil {
		return apperrors.Invariant("close session %s without an end time", session.ID)
	}
	result, err := r.c.exec(
		ctx,
		`UPDATE location_sessions
		 SET ended_at = ?,
		     duration_minutes = ?
		 WHERE id = ? AND ended_at IS NULL`,
		toMillis(*session.EndedAt),
		session.DurationMinutes,
		session.ID,
	)
	if err != nil {
		return apperrors.Store("close session", err)
	}
	return requireAffected(result, "close session")
}

func (r *SessionRepository) GetOpen(ctx context.Context, ownerID string) (*model.LocationSession, error) {
	row := r.c.queryRow(
		ctx,
		`SELECT `+sessionColumns+`
		 FROM location_sessions
		 WHERE owner_id = ? AND ended_at IS NULL`,
		ownerID,
	)
	return scanSession(row)
}

// SumMinutes totals closed session minutes for one owner, category and week.
func (r *SessionRepository) SumMinutes(ctx context.Context, ownerID string, category model.Category, weekStart time.Time) (int, error) {
	var total int64
	err := r.c.queryRow(
		ctx,
		`SELECT COALESCE(SUM(duration_minutes), 0)
		 FROM location_sessions
		 WHERE owner_id = ? AND category = ? AND week_start = ? AND ended_at IS NOT NULL`,
		ownerID,
		string(category),
		toMillis(weekStart),
	).Scan(&total)
	if err != nil {
		return 0, apperrors.Store("sum session minutes", err)
	}
	return int(total), nil
}

// DeleteFinalized removes closed sessions of weekStart and any older week. Open sessions
// are left for the tracker to close.
func (r *SessionRepository) DeleteFinalized(ctx context.Context, ownerID string, weekStart time.Time) (int64, error) {
	result, err := r.c.exec(
		ctx,
		`DELETE FROM location_sessions
		 WHERE owner_id = ? AND week_start <= ? AND ended_at IS NOT NULL`,
		ownerID,
		toMillis(weekStart),
	)
	if err != nil {
		return 0, apperrors.Store("delete sessions", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Store("delete sessions", err)
	}
	return deleted, nil
}

func (r *SessionRepository) ListByWeek(ctx context.Context, ownerID string, weekStart time.Time) ([]model.LocationSession, error) {
	rows, err := r.c.query(
		ctx,
		`SELECT `+sessionColumns+`
		 FROM location_sessions
		 WHERE owner_id = ? AND week_start = ?
		 ORDER BY started_at DESC`,
		ownerID,
		toMillis(weekStart),
	)
	if err != nil {
		return nil, apperrors.Store("list sessions", err)
	}
	defer rows.Close()

	sessions := make([]model.LocationSession, 0)
	for rows.Next() {
		session, scanErr := scanSession(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Store("iterate sessions", err)
	}
	return sessions, nil
}

func scanSession(s scanner) (*model.LocationSession, error) {
	var session model.LocationSession
	var category string
	var startedAt, weekStart int64
	var endedAt sql.NullInt64
	err := s.Scan(
		&session.ID,
		&session.OwnerID,
		&category,
		&session.PlaceID,
		&startedAt,
		&endedAt,
		&session.DurationMinutes,
		&weekStart,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperrors.Store("scan session", err)
	}
	session.Category = model.Category(category)
	session.StartedAt = fromMillis(startedAt)
	session.EndedAt = fromNullMillis(endedAt)
	session.WeekStart = fromMillis(weekStart)
	return &session, nil
}
