package domain

// Cluster is a transient, unordered, capacity-bounded working set of points.
type Cluster struct {
	Points       []CollectionPoint
	Volume       int
	OverCapacity bool
}

// Fits reports whether p can join the cluster without exceeding capacity or
// the optional point limit (maxPoints <= 0 means unlimited).
func (c *Cluster) Fits(p CollectionPoint, capacity, maxPoints int) bool {
	if c.OverCapacity {
		return false
	}
	if maxPoints > 0 && len(c.Points) >= maxPoints {
		return false
	}
	return c.Volume+p.ExpectedVolume <= capacity
}

func (c *Cluster) Add(p CollectionPoint) {
	c.Points = append(c.Points, p)
	c.Volume += p.ExpectedVolume
}

// TopPriority is the highest priority among the members.
func (c *Cluster) TopPriority() Priority {
	top := PriorityLow
	for _, p := range c.Points {
		if p.Priority > top {
			top = p.Priority
		}
	}
	return top
}

// CrossZoneCount returns the number of member points outside zone.
func (c *Cluster) CrossZoneCount(zone string) int {
	n := 0
	for _, p := range c.Points {
		if p.Zone != zone {
			n++
		}
	}
	return n
}
