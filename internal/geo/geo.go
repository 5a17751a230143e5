package geo

import (
	"math"
	"sort"

	"placetime/backend/internal/model"
)

// EarthRadiusMeters is the mean Earth radius used for great-circle distances.
const EarthRadiusMeters = 6371008.8

// Distance returns the haversine great-circle distance in meters.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	if a > 1 {
		a = 1
	}
	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(a))
}

func Contains(place model.Place, fix model.LocationFix) bool {
	return Distance(place.Latitude, place.Longitude, fix.Latitude, fix.Longitude) <= place.RadiusMeters
}

// Match returns the place containing fix. Overlapping places resolve to the smallest
// radius, then the lowest id.
func Match(places []model.Place, fix model.LocationFix) (model.Place, bool) {
	matches := make([]model.Place, 0, 2)
	for _, place := range places {
		if Contains(place, fix) {
			matches = append(matches, place)
		}
	}
	if len(matches) == 0 {
		return model.Place{}, false
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].RadiusMeters != matches[j].RadiusMeters {
			return matches[i].RadiusMeters < matches[j].RadiusMeters
		}
		return matches[i].ID < matches[j].ID
	})
	return matches[0], true
}

func ValidCoordinate(lat, lon float64) bool {
	return !math.IsNaN(lat) && !math.IsNaN(lon) && lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
