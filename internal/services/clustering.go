package services

import (
	"sort"

	"collection-route-service/internal/domain"
)

type ClusterOptions struct {
	VehicleCount int
	Capacity     int
	// MaxPoints bounds stops per cluster; 0 means unlimited.
	MaxPoints        int
	PrioritizeUrgent bool
}

// ClusterPoints partitions points into capacity-bounded clusters, keeping
// zones together where capacity allows.
//
// Points are ordered by priority (critical first) then zone, and placed
// zone by zone. Each point goes to the eligible cluster with the fewest
// points from other zones, then the lowest load, then the lowest index.
// When nothing is eligible a new cluster is opened past VehicleCount.
// A point larger than Capacity becomes its own cluster flagged
// OverCapacity; those clusters are returned after the regular ones.
//
// The result is deterministic for a given input and never contains an
// empty cluster. Non-positive VehicleCount or Capacity yields nil.
func ClusterPoints(points []domain.CollectionPoint, opts ClusterOptions) []domain.Cluster {
	if opts.VehicleCount <= 0 || opts.Capacity <= 0 || len(points) == 0 {
		return nil
	}

	sorted := orderForClustering(points, opts.PrioritizeUrgent)

	clusters := make([]*domain.Cluster, opts.VehicleCount)
	for i := range clusters {
		clusters[i] = &domain.Cluster{}
	}
	var flagged []*domain.Cluster

	for _, group := range groupByZone(sorted) {
		for _, p := range group {
			if p.ExpectedVolume > opts.Capacity {
				single := &domain.Cluster{OverCapacity: true}
				single.Add(p)
				flagged = append(flagged, single)
				continue
			}

			best := pickCluster(clusters, p, opts)
			if best < 0 {
				clusters = append(clusters, &domain.Cluster{})
				best = len(clusters) - 1
			}
			clusters[best].Add(p)
		}
	}

	clusters = balance(clusters, opts.Capacity, opts.MaxPoints)

	out := make([]domain.Cluster, 0, len(clusters)+len(flagged))
	for _, c := range clusters {
		if len(c.Points) > 0 {
			out = append(out, *c)
		}
	}
	for _, c := range flagged {
		out = append(out, *c)
	}
	return out
}

func orderForClustering(points []domain.CollectionPoint, prioritizeUrgent bool) []domain.CollectionPoint {
	sorted := make([]domain.CollectionPoint, len(points))
	copy(sorted, points)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if prioritizeUrgent && a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.Zone != b.Zone {
			return a.Zone < b.Zone
		}
		return a.ID < b.ID
	})
	return sorted
}

// groupByZone keeps zones in order of first appearance, so the zone holding
// the most urgent point is placed first.
func groupByZone(sorted []domain.CollectionPoint) [][]domain.CollectionPoint {
	index := map[string]int{}
	var groups [][]domain.CollectionPoint
	for _, p := range sorted {
		i, ok := index[p.Zone]
		if !ok {
			i = len(groups)
			index[p.Zone] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], p)
	}
	return groups
}

// pickCluster returns the index of the best eligible cluster, or -1.
func pickCluster(clusters []*domain.Cluster, p domain.CollectionPoint, opts ClusterOptions) int {
	best, bestCross, bestLoad := -1, 0, 0
	for i, c := range clusters {
		if !c.Fits(p, opts.Capacity, opts.MaxPoints) {
			continue
		}
		cross := c.CrossZoneCount(p.Zone)
		if best < 0 || cross < bestCross || (cross == bestCross && c.Volume < bestLoad) {
			best, bestCross, bestLoad = i, cross, c.Volume
		}
	}
	return best
}

// balance splits any cluster over capacity or over the point limit into
// sequential chunks that respect both, preserving member order. Clusters
// built by pickCluster already fit, so for ClusterPoints this is a final
// guard; flagged clusters pass through unchanged.
func balance(clusters []*domain.Cluster, capacity, maxPoints int) []*domain.Cluster {
	out := make([]*domain.Cluster, 0, len(clusters))
	for _, c := range clusters {
		over := c.Volume > capacity || (maxPoints > 0 && len(c.Points) > maxPoints)
		if c.OverCapacity || !over {
			out = append(out, c)
			continue
		}

		chunk := &domain.Cluster{}
		for _, p := range c.Points {
			if len(chunk.Points) > 0 && !chunk.Fits(p, capacity, maxPoints) {
				out = append(out, chunk)
				chunk = &domain.Cluster{}
			}
			chunk.Add(p)
		}
		out = append(out, chunk)
	}
	return out
}
