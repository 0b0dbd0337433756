package cluster

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/moodtrail-backend-go/internal/models"
)

var day = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func dwell(lat, lon float64, startHour, minutes int) models.DwellEvent {
	start := day.Add(time.Duration(startHour) * time.Hour)
	return models.DwellEvent{
		Latitude:  lat,
		Longitude: lon,
		StartTime: start,
		EndTime:   start.Add(time.Duration(minutes) * time.Minute),
		FixCount:  3,
	}
}

func TestCluster_IdenticalCoordinatesFormOneCluster(t *testing.T) {
	c := NewClusterer(0, 0, nil)
	dwells := []models.DwellEvent{
		dwell(40.0, -74.0, 0, 30),
		dwell(40.0, -74.0, 24, 45),
		dwell(40.0, -74.0, 48, 15),
	}

	clusters := c.Cluster(dwells)

	require.Len(t, clusters, 1)
	pc := clusters[0]
	assert.Equal(t, 1, pc.Rank)
	assert.Equal(t, 3, pc.VisitCount)
	assert.InDelta(t, 40.0, pc.CenterLatitude, 1e-12)
	assert.InDelta(t, -74.0, pc.CenterLongitude, 1e-12)
	assert.InDelta(t, 90.0, pc.TotalDwellMinutes, 1e-9)
	assert.InDelta(t, 30.0, pc.AverageDwellMinutes(), 1e-9)
	assert.Equal(t, dwells[0].StartTime, pc.FirstVisit)
	assert.Equal(t, dwells[2].EndTime, pc.LastVisit)
	assert.Equal(t, []string{"2024-03-01", "2024-03-02", "2024-03-03"}, pc.VisitDates)
}

func TestCluster_IsolatedEventsAreNoise(t *testing.T) {
	c := NewClusterer(200, 2, nil)
	dwells := []models.DwellEvent{
		dwell(40.0, -74.0, 0, 30),
		dwell(41.0, -74.0, 2, 30),
		dwell(42.0, -74.0, 4, 30),
	}

	assert.Empty(t, c.Cluster(dwells))
}

func TestCluster_TooFewDwells(t *testing.T) {
	c := NewClusterer(200, 2, nil)

	assert.Empty(t, c.Cluster(nil))
	assert.Empty(t, c.Cluster([]models.DwellEvent{dwell(40, -74, 0, 30)}))
}

func TestCluster_MetadataHints(t *testing.T) {
	c := NewClusterer(200, 2, nil)
	first := dwell(40.0, -74.0, 0, 30)
	first.ActivityType = "still"
	second := dwell(40.0001, -74.0, 3, 30)
	second.LocationName = "Cafe"
	second.ActivityType = "still"
	third := dwell(40.0, -74.0001, 6, 30)
	third.LocationName = "Other"
	third.Address = "1 Main St"
	third.ActivityType = "walking"

	clusters := c.Cluster([]models.DwellEvent{first, second, third})

	require.Len(t, clusters, 1)
	assert.Equal(t, "Cafe", clusters[0].Name)
	assert.Equal(t, "1 Main St", clusters[0].Address)
	assert.Equal(t, map[string]int{"still": 2, "walking": 1}, clusters[0].ActivityTypes)
	assert.Len(t, clusters[0].Members, 3)
}

func TestCluster_SortOrder(t *testing.T) {
	c := NewClusterer(200, 2, nil)
	dwells := []models.DwellEvent{
		// Place A: 2 visits, 20 minutes
		dwell(10.0, 10.0, 0, 10),
		dwell(10.0, 10.0, 1, 10),
		// Place B: 3 visits
		dwell(20.0, 20.0, 2, 10),
		dwell(20.0, 20.0, 3, 10),
		dwell(20.0, 20.0, 4, 10),
		// Place C: 2 visits, 60 minutes
		dwell(30.0, 30.0, 5, 30),
		dwell(30.0, 30.0, 6, 30),
		// Place D: same totals as A, appears later
		dwell(50.0, 50.0, 7, 10),
		dwell(50.0, 50.0, 8, 10),
	}

	clusters := c.Cluster(dwells)

	require.Len(t, clusters, 4)
	lats := make([]float64, len(clusters))
	for i, pc := range clusters {
		lats[i] = pc.CenterLatitude
		assert.Equal(t, i+1, pc.Rank)
	}
	assert.Equal(t, []float64{20, 30, 10, 50}, lats)
}

func TestCluster_ChainThroughCorePoints(t *testing.T) {
	// ~111 m apart in a line; each neighbour is within 200 m, the ends are not
	c := NewClusterer(200, 2, nil)
	dwells := []models.DwellEvent{
		dwell(40.000, -74.0, 0, 20),
		dwell(40.001, -74.0, 1, 20),
		dwell(40.002, -74.0, 2, 20),
		dwell(40.003, -74.0, 3, 20),
	}

	clusters := c.Cluster(dwells)

	require.Len(t, clusters, 1)
	assert.Equal(t, 4, clusters[0].VisitCount)
}

func TestCluster_BorderAttachesToNearestCore(t *testing.T) {
	// minPts 4: both groups are dense, the point at the origin only reaches
	// one core from each side and is closer to the east one
	c := NewClusterer(200, 4, nil)
	dwells := []models.DwellEvent{
		dwell(0, -0.0023, 0, 20),
		dwell(0, -0.0021, 1, 20),
		dwell(0, -0.0019, 2, 20),
		dwell(0, -0.0017, 3, 20),
		dwell(0, 0, 4, 20), // border
		dwell(0, 0.0012, 5, 20),
		dwell(0, 0.0019, 6, 20),
		dwell(0, 0.0021, 7, 20),
		dwell(0, 0.0023, 8, 20),
	}

	clusters := c.Cluster(dwells)

	require.Len(t, clusters, 2)
	assert.Equal(t, 5, clusters[0].VisitCount)
	assert.Equal(t, 4, clusters[1].VisitCount)
	assert.Greater(t, clusters[0].CenterLongitude, clusters[1].CenterLongitude)
}

func TestCluster_PermutationInvariantMembership(t *testing.T) {
	c := NewClusterer(200, 2, nil)
	var dwells []models.DwellEvent
	hour := 0
	for _, center := range [][2]float64{{40, -74}, {40.05, -74}, {40.1, -74}} {
		for k := 0; k < 4; k++ {
			dwells = append(dwells, dwell(center[0]+float64(k)*0.0002, center[1], hour, 15+k))
			hour++
		}
	}
	dwells = append(dwells, dwell(45, -70, hour, 30))

	want := membership(c.Cluster(dwells))

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 10; trial++ {
		shuffled := append([]models.DwellEvent(nil), dwells...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, membership(c.Cluster(shuffled)))
	}
}

// membership renders clusters as sorted sets of member start times
func membership(clusters []models.PlaceCluster) [][]int64 {
	var out [][]int64
	for _, pc := range clusters {
		var ids []int64
		for _, m := range pc.Members {
			ids = append(ids, m.StartTime.Unix())
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		out = append(out, ids)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

func TestNewClusterer_Defaults(t *testing.T) {
	c := NewClusterer(-1, 0, nil)

	assert.Equal(t, DefaultClusterDistanceMeters, c.ClusterDistanceMeters)
	assert.Equal(t, DefaultMinClusterVisits, c.MinClusterVisits)
}
