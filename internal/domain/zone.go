package domain

// Zone is a cosmetic subdivision of total capacity shown on dashboards.
// Zones are not persisted and have no independent occupancy.
type Zone struct {
	ID       string
	Name     string
	Capacity int
}

// ZoneOccupancy is the share of the single occupancy count shown for a zone.
type ZoneOccupancy struct {
	Zone     Zone
	Occupied int
	Free     int
}

// PartitionOccupancy fills zones in order with the occupied count.
func PartitionOccupancy(zones []Zone, occupied int) []ZoneOccupancy {
	out := make([]ZoneOccupancy, 0, len(zones))
	remaining := max(occupied, 0)
	for _, z := range zones {
		n := min(remaining, z.Capacity)
		remaining -= n
		out = append(out, ZoneOccupancy{
			Zone:     z,
			Occupied: n,
			Free:     z.Capacity - n,
		})
	}
	return out
}
