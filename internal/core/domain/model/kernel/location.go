package kernel

import (
	"errors"
	"fmt"
	"math"

	"parceltrack/internal/pkg/errs"
	"parceltrack/internal/pkg/guard"
)

const (
	// LatitudeMin is the southern bound of a valid latitude.
	LatitudeMin = -90.0
	// LatitudeMax is the northern bound of a valid latitude.
	LatitudeMax = 90.0
	// LongitudeMin is the western bound of a valid longitude.
	LongitudeMin = -180.0
	// LongitudeMax is the eastern bound of a valid longitude.
	LongitudeMax = 180.0

	earthRadiusKm = 6371.0
)

// ErrLocationIsNotConstructed is returned when attempting to use an improperly initialized Location.
// Locations must be created using NewLocation to ensure validity.
var ErrLocationIsNotConstructed = errs.NewValueIsRequiredError("location must be created via NewLocation constructor")

// Location is a WGS84 geocoordinate (latitude, longitude in decimal degrees).
// Location is an immutable value object whose coordinates are always within range.
// The zero value of Location is invalid and will fail validation.
//
// Example:
//
//	pickup, err := kernel.NewLocation(23.81, 90.41)
//	if err != nil {
//	    // Handle validation error
//	}
//	fmt.Println(pickup) // Location(23.810000,90.410000)
type Location struct { //nolint:recvcheck //using for validation
	lat   float64
	lng   float64
	guard guard.ConstructorGuard
}

// NewLocation creates a Location from latitude and longitude.
//
// Parameters:
//   - lat: latitude in [LatitudeMin..LatitudeMax]
//   - lng: longitude in [LongitudeMin..LongitudeMax]
//
// Returns:
//   - Location: A valid location instance
//   - error: joined ValueIsOutOfRange errors for every coordinate out of bounds
func NewLocation(lat, lng float64) (Location, error) {
	loc := Location{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(loc.setLat(lat), loc.setLng(lng)); err != nil {
		return Location{}, err
	}

	return loc, nil
}

// Validate checks if the Location was properly constructed using NewLocation.
func (l Location) Validate() error {
	return l.guard.Validate(ErrLocationIsNotConstructed)
}

// Lat returns the latitude in decimal degrees.
func (l Location) Lat() float64 {
	return l.lat
}

// Lng returns the longitude in decimal degrees.
func (l Location) Lng() float64 {
	return l.lng
}

// String implements fmt.Stringer.
func (l Location) String() string {
	return fmt.Sprintf("Location(%f,%f)", l.lat, l.lng)
}

// IsEqual compares two locations by coordinates.
// Both locations must be properly constructed for the comparison to succeed.
func (l Location) IsEqual(other Location) (bool, error) {
	if err := errors.Join(l.Validate(), other.Validate()); err != nil {
		return false, err
	}

	return l.lat == other.lat && l.lng == other.lng, nil
}

// DistanceKm returns the great-circle (haversine) distance to other in kilometres.
//
// Example:
//
//	pickup, _ := kernel.NewLocation(23.81, 90.41)
//	drop, _ := kernel.NewLocation(23.70, 90.40)
//	km, _ := pickup.DistanceKm(drop) // ~12.27
func (l Location) DistanceKm(other Location) (float64, error) {
	if err := errors.Join(l.Validate(), other.Validate()); err != nil {
		return 0, err
	}

	return HaversineKm(l.lat, l.lng, other.lat, other.lng), nil
}

// HaversineKm computes the great-circle distance between two raw coordinate pairs.
// Adapters that filter by radius use it on values they have not materialised as
// Location.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func (l *Location) setLat(lat float64) error {
	if math.IsNaN(lat) || lat < LatitudeMin || lat > LatitudeMax {
		return errs.NewValueIsOutOfRangeError("lat", lat, LatitudeMin, LatitudeMax)
	}

	l.lat = lat
	return nil
}

func (l *Location) setLng(lng float64) error {
	if math.IsNaN(lng) || lng < LongitudeMin || lng > LongitudeMax {
		return errs.NewValueIsOutOfRangeError("lng", lng, LongitudeMin, LongitudeMax)
	}

	l.lng = lng
	return nil
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
