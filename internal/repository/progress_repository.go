package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	apperrors "placetime/backend/internal/errors"
	"placetime/backend/internal/model"
)

type ProgressRepository struct {
	c conn
}

const progressColumns = `owner_id, week_start, week_end, library_completed, bar_completed, gym_completed, all_goals_completed, created_at`

// Upsert writes the snapshot for (owner, week), replacing any earlier write of the same week.
func (r *ProgressRepository) Upsert(ctx context.Context, progress *model.WeeklyProgress) error {
	_, err := r.c.exec(
		ctx,
		`INSERT INTO weekly_progress (`+progressColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (owner_id, week_start) DO UPDATE SET
		   week_end = excluded.week_end,
		   library_completed = excluded.library_completed,
		   bar_completed = excluded.bar_completed,
		   gym_completed = excluded.gym_completed,
		   all_goals_completed = excluded.all_goals_completed,
		   created_at = excluded.created_at`,
		progress.OwnerID,
		toMillis(progress.WeekStart),
		toMillis(progress.WeekEnd),
		progress.LibraryCompleted,
		progress.BarCompleted,
		progress.GymCompleted,
		progress.AllGoalsCompleted,
		toMillis(progress.CreatedAt),
	)
	if err != nil {
		return apperrors.Store("upsert weekly progress", err)
	}
	return nil
}

func (r *ProgressRepository) Get(ctx context.Context, ownerID string, weekStart time.Time) (*model.WeeklyProgress, error) {
	row := r.c.queryRow(
		ctx,
		`SELECT `+progressColumns+`
		 FROM weekly_progress
		 WHERE owner_id = ? AND week_start = ?`,
		ownerID,
		toMillis(weekStart),
	)
	return scanProgress(row)
}

// History returns every snapshot of the owner, most recent week first.
func (r *ProgressRepository) History(ctx context.Context, ownerID string) ([]model.WeeklyProgress, error) {
	rows, err := r.c.query(
		ctx,
		`SELECT `+progressColumns+`
		 FROM weekly_progress
		 WHERE owner_id = ?
		 ORDER BY week_start DESC`,
		ownerID,
	)
	if err != nil {
		return nil, apperrors.Store("list weekly progress", err)
	}
	defer rows.Close()

	history := make([]model.WeeklyProgress, 0)
	for rows.Next() {
		progress, scanErr := scanProgress(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		history = append(history, *progress)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Store("iterate weekly progress", err)
	}
	return history, nil
}

func (r *ProgressRepository) DeleteByOwner(ctx context.Context, ownerID string) error {
	if _, err := r.c.exec(ctx, `DELETE FROM weekly_progress WHERE owner_id = ?`, ownerID); err != nil {
		return apperrors.Store("delete weekly progress", err)
	}
	return nil
}

func scanProgress(s scanner) (*model.WeeklyProgress, error) {
	var progress model.WeeklyProgress
	var weekStart, weekEnd, createdAt int64
	err := s.Scan(
		&progress.OwnerID,
		&weekStart,
		&weekEnd,
		&progress.LibraryCompleted,
		&progress.BarCompleted,
		&progress.GymCompleted,
		&progress.AllGoalsCompleted,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperrors.Store("scan weekly progress", err)
	}
	progress.WeekStart = fromMillis(weekStart)
	progress.WeekEnd = fromMillis(weekEnd)
	progress.CreatedAt = fromMillis(createdAt)
	return &progress, nil
}
