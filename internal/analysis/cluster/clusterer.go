// Package cluster groups dwell events into recurring places with density-based clustering.
package cluster

import (
	"sort"

	"go.uber.org/zap"

	"github.com/jengzang/moodtrail-backend-go/internal/models"
	"github.com/jengzang/moodtrail-backend-go/internal/spatial"
)

// Default parameters
const (
	DefaultClusterDistanceMeters = 200.0
	DefaultMinClusterVisits      = 2
)

// Clusterer runs DBSCAN over dwell centroids projected into degree space
type Clusterer struct {
	ClusterDistanceMeters float64
	MinClusterVisits      int // Includes the point itself, like sklearn's min_samples

	logger *zap.Logger
}

// NewClusterer creates a clusterer, falling back to defaults for non-positive parameters
func NewClusterer(clusterDistanceMeters float64, minClusterVisits int, logger *zap.Logger) *Clusterer {
	if clusterDistanceMeters <= 0 {
		clusterDistanceMeters = DefaultClusterDistanceMeters
	}
	if minClusterVisits <= 0 {
		minClusterVisits = DefaultMinClusterVisits
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Clusterer{
		ClusterDistanceMeters: clusterDistanceMeters,
		MinClusterVisits:      minClusterVisits,
		logger:                logger,
	}
}

// Cluster partitions dwell events into place clusters, discarding noise.
// Membership does not depend on input order; name, address and centroid
// tie-breaks follow input order.
func (c *Clusterer) Cluster(dwells []models.DwellEvent) []models.PlaceCluster {
	if len(dwells) < c.MinClusterVisits {
		c.logger.Info("Not enough dwell events for clustering",
			zap.Int("dwell_events", len(dwells)),
			zap.Int("min_cluster_visits", c.MinClusterVisits))
		return nil
	}

	eps := spatial.MetersToDegrees(c.ClusterDistanceMeters)
	labels := c.label(dwells, eps)

	// Group by label, ordered by each group's first member
	groupIndex := make(map[int]int)
	var groups [][]int
	for i, label := range labels {
		if label == noise {
			continue
		}
		g, ok := groupIndex[label]
		if !ok {
			g = len(groups)
			groupIndex[label] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}

	var clusters []models.PlaceCluster
	dropped := 0
	for _, members := range groups {
		if len(members) < c.MinClusterVisits {
			dropped++
			continue
		}
		clusters = append(clusters, buildCluster(dwells, members))
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		if clusters[i].VisitCount != clusters[j].VisitCount {
			return clusters[i].VisitCount > clusters[j].VisitCount
		}
		return clusters[i].TotalDwellMinutes > clusters[j].TotalDwellMinutes
	})
	for i := range clusters {
		clusters[i].Rank = i + 1
	}

	c.logger.Debug("Clustering complete",
		zap.Int("dwell_events", len(dwells)),
		zap.Int("clusters", len(clusters)),
		zap.Int("undersized_groups", dropped),
		zap.Float64("eps_degrees", eps))

	return clusters
}

const noise = -1

// label assigns every dwell a component label or noise.
// Core points are joined through union-find, so components are order independent.
// Border points attach to their nearest core neighbour, ties to the lowest index.
func (c *Clusterer) label(dwells []models.DwellEvent, eps float64) []int {
	n := len(dwells)
	points := make([]pointRef, n)
	for i, d := range dwells {
		points[i] = pointRef{p: spatial.Project(d.Latitude, d.Longitude)}
	}

	neighbors := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if spatial.PlanarDistance(points[i].p, points[j].p) <= eps {
				neighbors[i] = append(neighbors[i], j)
			}
		}
	}

	core := make([]bool, n)
	for i := range neighbors {
		core[i] = len(neighbors[i]) >= c.MinClusterVisits
	}

	uf := newUnionFind(n)
	for i := 0; i < n; i++ {
		if !core[i] {
			continue
		}
		for _, j := range neighbors[i] {
			if core[j] {
				uf.union(i, j)
			}
		}
	}

	labels := make([]int, n)
	for i := 0; i < n; i++ {
		if core[i] {
			labels[i] = uf.find(i)
			continue
		}

		labels[i] = noise
		best := -1
		bestDist := 0.0
		for _, j := range neighbors[i] {
			if !core[j] {
				continue
			}
			d := spatial.PlanarDistance(points[i].p, points[j].p)
			if best == -1 || d < bestDist {
				best, bestDist = j, d
			}
		}
		if best != -1 {
			labels[i] = uf.find(best)
		}
	}

	return labels
}

func buildCluster(dwells []models.DwellEvent, members []int) models.PlaceCluster {
	lats := make([]float64, len(members))
	lons := make([]float64, len(members))
	memberDwells := make([]models.DwellEvent, len(members))
	for k, idx := range members {
		lats[k] = dwells[idx].Latitude
		lons[k] = dwells[idx].Longitude
		memberDwells[k] = dwells[idx]
	}
	lat, lon := spatial.Centroid(lats, lons)

	pc := models.PlaceCluster{
		CenterLatitude:  lat,
		CenterLongitude: lon,
		VisitCount:      len(memberDwells),
		ActivityTypes:   make(map[string]int),
		Members:         memberDwells,
	}

	for k, d := range memberDwells {
		if pc.Name == "" {
			pc.Name = d.LocationName
		}
		if pc.Address == "" {
			pc.Address = d.Address
		}
		if d.ActivityType != "" {
			pc.ActivityTypes[d.ActivityType]++
		}
		pc.TotalDwellMinutes += d.DurationMinutes()
		pc.VisitDates = append(pc.VisitDates, d.StartTime.Format(models.DateLayout))

		if k == 0 || d.StartTime.Before(pc.FirstVisit) {
			pc.FirstVisit = d.StartTime
		}
		if k == 0 || d.EndTime.After(pc.LastVisit) {
			pc.LastVisit = d.EndTime
		}
	}

	return pc
}
