package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "placetime/backend/internal/errors"
	"placetime/backend/internal/geo"
	"placetime/backend/internal/model"
	"placetime/backend/internal/repository"
)

type PlaceService struct {
	places *repository.PlaceRepository
}

type PlaceInput struct {
	Name         string
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
	Category     string
}

func NewPlaceService(places *repository.PlaceRepository) *PlaceService {
	return &PlaceService{places: places}
}

func (s *PlaceService) List(ctx context.Context, ownerID, rawCategory string) ([]model.Place, *apperrors.APIError) {
	var filter *model.Category
	if strings.TrimSpace(rawCategory) != "" {
		category, err := model.ParseCategory(rawCategory)
		if err != nil {
			return nil, apperrors.BadRequest("invalid_category", err.Error())
		}
		filter = &category
	}

	places, err := s.places.ListByOwner(ctx, ownerID, filter)
	if err != nil {
		return nil, apperrors.Internal("failed to list places")
	}
	return places, nil
}

func (s *PlaceService) Create(ctx context.Context, ownerID string, input PlaceInput) (*model.Place, *apperrors.APIError) {
	category, apiErr := validatePlace(input)
	if apiErr != nil {
		return nil, apiErr
	}

	now := time.Now().UTC()
	place := model.Place{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Name:         strings.TrimSpace(input.Name),
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		RadiusMeters: input.RadiusMeters,
		Category:     category,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.places.Create(ctx, &place); err != nil {
		return nil, apperrors.Internal("failed to create place")
	}
	return &place, nil
}

func (s *PlaceService) Update(ctx context.Context, ownerID, placeID string, input PlaceInput) (*model.Place, *apperrors.APIError) {
	category, apiErr := validatePlace(input)
	if apiErr != nil {
		return nil, apiErr
	}

	place, err := s.places.Get(ctx, ownerID, placeID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("place_not_found", "place not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get place")
	}

	place.Name = strings.TrimSpace(input.Name)
	place.Latitude = input.Latitude
	place.Longitude = input.Longitude
	place.RadiusMeters = input.RadiusMeters
	place.Category = category
	place.UpdatedAt = time.Now().UTC()

	err = s.places.Update(ctx, place)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("place_not_found", "place not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to update place")
	}
	return place, nil
}

func (s *PlaceService) Delete(ctx context.Context, ownerID, placeID string) *apperrors.APIError {
	err := s.places.Delete(ctx, ownerID, placeID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("place_not_found", "place not found")
	}
	if err != nil {
		return apperrors.Internal("failed to delete place")
	}
	return nil
}

func validatePlace(input PlaceInput) (model.Category, *apperrors.APIError) {
	if strings.TrimSpace(input.Name) == "" {
		return "", apperrors.BadRequest("invalid_name", "name is required")
	}
	if !geo.ValidCoordinate(input.Latitude, input.Longitude) {
		return "", apperrors.BadRequest("invalid_coordinates", "latitude must be within [-90, 90] and longitude within [-180, 180]")
	}
	if input.RadiusMeters <= 0 || math.IsNaN(input.RadiusMeters) || math.IsInf(input.RadiusMeters, 0) {
		return "", apperrors.BadRequest("invalid_radius", "radiusMeters must be positive")
	}
	category, err := model.ParseCategory(input.Category)
	if err != nil {
		return "", apperrors.BadRequest("invalid_category", err.Error())
	}
	return category, nil
}

// Import validates every input before creating any place, so a bad file creates nothing.
func (s *PlaceService) Import(ctx context.Context, ownerID string, inputs []PlaceInput) ([]model.Place, *apperrors.APIError) {
	for i, input := range inputs {
		if _, apiErr := validatePlace(input); apiErr != nil {
			apiErr.Details = map[string]int{"index": i}
			return nil, apiErr
		}
	}

	created := make([]model.Place, 0, len(inputs))
	for _, input := range inputs {
		place, apiErr := s.Create(ctx, ownerID, input)
		if apiErr != nil {
			return created, apiErr
		}
		created = append(created, *place)
	}
	return created, nil
}
