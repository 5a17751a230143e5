package repository

import (
	"context"
	"database/sql"
	"errors"

	apperrors "placetime/backend/internal/errors"
	"placetime/backend/internal/model"
)

type PlaceRepository struct {
	c conn
}

func (r *PlaceRepository) Create(ctx context.Context, place *model.Place) error {
	_, err := r.c.exec(
		ctx,
		`INSERT INTO places (
			id, owner_id, name, latitude, longitude, radius_meters, category, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		place.ID,
		place.OwnerID,
		place.Name,
		place.Latitude,
		place.Longitude,
		place.RadiusMeters,
		string(place.Category),
		toMillis(place.CreatedAt),
		toMillis(place.UpdatedAt),
	)
	if err != nil {
		return apperrors.Store("create place", err)
	}
	return nil
}

func (r *PlaceRepository) Update(ctx context.Context, place *model.Place) error {
	result, err := r.c.exec(
		ctx,
		`UPDATE places
		 SET name = ?,
		     latitude = ?,
		     longitude = ?,
		     radius_meters = ?,
		     category = ?,
		     updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		place.Name,
		place.Latitude,
		place.Longitude,
		place.RadiusMeters,
		string(place.Category),
		toMillis(place.UpdatedAt),
		place.ID,
		place.OwnerID,
	)
	if err != nil {
		return apperrors.Store("update place", err)
	}
	return requireAffected(result, "update place")
}

func (r *PlaceRepository) Delete(ctx context.Context, ownerID, id string) error {
	result, err := r.c.exec(ctx, `DELETE FROM places WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return apperrors.Store("delete place", err)
	}
	return requireAffected(result, "delete place")
}

func (r *PlaceRepository) Get(ctx context.Context, ownerID, id string) (*model.Place, error) {
	row := r.c.queryRow(
		ctx,
		`SELECT id, owner_id, name, latitude, longitude, radius_meters, category, created_at, updated_at
		 FROM places
		 WHERE id = ? AND owner_id = ?`,
		id,
		ownerID,
	)
	return scanPlace(row)
}

// ListByOwner returns the owner's places, optionally narrowed to one category.
func (r *PlaceRepository) ListByOwner(ctx context.Context, ownerID string, category *model.Category) ([]model.Place, error) {
	query := `SELECT id, owner_id, name, latitude, longitude, radius_meters, category, created_at, updated_at
		 FROM places
		 WHERE owner_id = ?`
	args := []interface{}{ownerID}
	if category != nil {
		query += ` AND category = ?`
		args = append(args, string(*category))
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.c.query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Store("list places", err)
	}
	defer rows.Close()

	places := make([]model.Place, 0)
	for rows.Next() {
		place, scanErr := scanPlace(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		places = append(places, *place)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Store("iterate places", err)
	}
	return places, nil
}

func scanPlace(s scanner) (*model.Place, error) {
	var place model.Place
	var category string
	var createdAt, updatedAt int64
	err := s.Scan(
		&place.ID,
		&place.OwnerID,
		&place.Name,
		&place.Latitude,
		&place.Longitude,
		&place.RadiusMeters,
		&category,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperrors.Store("scan place", err)
	}
	place.Category = model.Category(category)
	place.CreatedAt = fromMillis(createdAt)
	place.UpdatedAt = fromMillis(updatedAt)
	return &place, nil
}

func requireAffected(result sql.Result, op string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Store(op, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
