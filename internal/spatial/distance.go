package spatial

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/s2"
)

// Constants
const (
	EarthRadiusMeters = 6371000.0 // Earth's mean radius in meters

	// MetersPerDegree is the equatorial approximation used to turn a metric radius
	// into a planar degree radius. It is not corrected for latitude, so east-west
	// distances are overestimated away from the equator.
	MetersPerDegree = 111000.0
)

// HaversineDistance calculates the great-circle distance between two points in meters
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// Project maps a coordinate onto the planar (lat, lon) degree space used for clustering
func Project(lat, lon float64) r2.Point {
	return r2.Point{X: lat, Y: lon}
}

// MetersToDegrees converts a metric radius into planar degrees
func MetersToDegrees(meters float64) float64 {
	return meters / MetersPerDegree
}

// PlanarDistance returns the euclidean distance between two projected points, in degrees
func PlanarDistance(a, b r2.Point) float64 {
	return a.Sub(b).Norm()
}

// Centroid returns the arithmetic mean latitude and longitude of the given coordinates
func Centroid(lats, lons []float64) (float64, float64) {
	if len(lats) == 0 || len(lats) != len(lons) {
		return 0, 0
	}
	var sumLat, sumLon float64
	for i := range lats {
		sumLat += lats[i]
		sumLon += lons[i]
	}
	n := float64(len(lats))
	return sumLat / n, sumLon / n
}
