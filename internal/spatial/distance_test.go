package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineDistance_SamePoint(t *testing.T) {
	assert.Equal(t, 0.0, HaversineDistance(40.7128, -74.0060, 40.7128, -74.0060))
}

func TestHaversineDistance_Symmetric(t *testing.T) {
	ab := HaversineDistance(40.7128, -74.0060, 34.0522, -118.2437)
	ba := HaversineDistance(34.0522, -118.2437, 40.7128, -74.0060)
	assert.InDelta(t, ab, ba, 1e-6)
}

func TestHaversineDistance_NewYorkToLosAngeles(t *testing.T) {
	d := HaversineDistance(40.7128, -74.0060, 34.0522, -118.2437)
	assert.InEpsilon(t, 3936000.0, d, 0.01)
}

func TestHaversineDistance_TriangleInequality(t *testing.T) {
	points := [][2]float64{
		{48.8566, 2.3522},
		{51.5074, -0.1278},
		{52.5200, 13.4050},
		{41.9028, 12.4964},
	}
	for _, a := range points {
		for _, b := range points {
			for _, c := range points {
				ab := HaversineDistance(a[0], a[1], b[0], b[1])
				bc := HaversineDistance(b[0], b[1], c[0], c[1])
				ac := HaversineDistance(a[0], a[1], c[0], c[1])
				assert.LessOrEqual(t, ac, ab+bc+1e-6)
			}
		}
	}
}

func TestHaversineDistance_SmallOffset(t *testing.T) {
	// 0.001 degrees of latitude is roughly 111 m
	d := HaversineDistance(37.7749, -122.4194, 37.7759, -122.4194)
	assert.InDelta(t, 111.2, d, 1.0)
}

func TestMetersToDegrees(t *testing.T) {
	assert.InDelta(t, 200.0/111000.0, MetersToDegrees(200), 1e-12)
}

func TestPlanarDistance(t *testing.T) {
	a := Project(0, 0)
	b := Project(3, 4)
	assert.InDelta(t, 5.0, PlanarDistance(a, b), 1e-12)
}

func TestCentroid(t *testing.T) {
	lat, lon := Centroid([]float64{1, 2, 3}, []float64{10, 20, 30})
	assert.InDelta(t, 2.0, lat, 1e-12)
	assert.InDelta(t, 20.0, lon, 1e-12)

	lat, lon = Centroid(nil, nil)
	assert.False(t, math.IsNaN(lat) || math.IsNaN(lon))
}
