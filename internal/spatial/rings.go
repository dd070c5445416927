package spatial

import "math"

// MaxRings bounds neighborhood queries to 3*10*11+1 = 331 cells.
const MaxRings = 10

// averageEdgeMeters is the mean hexagon edge length per H3 resolution.
var averageEdgeMeters = [16]float64{
	1281256.011, 483056.8391, 182512.9565, 68979.22179,
	26071.75968, 9854.090990, 3724.532667, 1406.475763,
	531.4140101, 200.7861476, 75.86378287, 28.66389748,
	10.83018784, 4.092010473, 1.546099657, 0.584168630,
}

// EdgeLengthMeters returns the mean hexagon edge length at the resolver's
// resolution.
func (r *Resolver) EdgeLengthMeters() float64 {
	return averageEdgeMeters[r.resolution]
}

// RingsForRadius returns the smallest grid distance k whose disk covers a
// circle of radius meters, capped at MaxRings. Adjacent cell centers are
// about sqrt(3) edge lengths apart.
func (r *Resolver) RingsForRadius(radius float64) int {
	if radius <= 0 || math.IsNaN(radius) {
		return 0
	}
	spacing := math.Sqrt(3) * r.EdgeLengthMeters()
	k := int(math.Ceil(radius / spacing))
	if k > MaxRings {
		return MaxRings
	}
	return k
}
