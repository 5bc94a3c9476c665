package routing

import (
	"errors"
	"math"

	"github.com/tidwall/rtree"

	"github.com/msioen/routing/pkg/geo"
	"github.com/msioen/routing/pkg/graph"
)

const maxSnapDistMeters = 500.0

// ErrPointTooFar is returned when the query point is too far from any road.
var ErrPointTooFar = errors.New("point too far from road")

// SnapResult represents a point snapped to a road segment.
type SnapResult struct {
	EdgeIdx uint32  // index into original edge arrays
	NodeU   uint32  // source node of the edge
	NodeV   uint32  // target node of the edge
	Ratio   float64 // 0.0 = at NodeU, 1.0 = at NodeV
	Dist    float64 // distance in meters from query point to snapped point
}

// snapEntry is the payload stored per edge in the R-tree.
type snapEntry struct {
	edgeIdx uint32
	source  uint32
}

// searchPadDeg pads the initial R-tree query window. 0.01° ≈ 1.1 km at the
// equator, comfortably over the 500 m max snap distance.
const searchPadDeg = 0.01

// Snapper provides nearest-road snapping using an R-tree spatial index over
// original graph edge bounding boxes.
type Snapper struct {
	tree rtree.RTree[snapEntry]
	g    *graph.Graph
}

// NewSnapper builds an R-tree spatial index from the original graph's edges.
func NewSnapper(g *graph.Graph) *Snapper {
	s := &Snapper{g: g}

	for u := uint32(0); u < g.NumNodes; u++ {
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			v := g.Head[e]
			uLat, uLon := g.NodeLat[u], g.NodeLon[u]
			vLat, vLon := g.NodeLat[v], g.NodeLon[v]

			min := [2]float64{math.Min(uLon, vLon), math.Min(uLat, vLat)}
			max := [2]float64{math.Max(uLon, vLon), math.Max(uLat, vLat)}
			s.tree.Insert(min, max, snapEntry{edgeIdx: e, source: u})
		}
	}

	return s
}

// Snap finds the nearest road segment to the given lat/lng.
func (s *Snapper) Snap(lat, lng float64) (SnapResult, error) {
	bestDist := math.Inf(1)
	var bestResult SnapResult
	found := false

	pad := searchPadDeg
	for attempt := 0; attempt < 4; attempt++ {
		found = false
		bestDist = math.Inf(1)

		min := [2]float64{lng - pad, lat - pad}
		max := [2]float64{lng + pad, lat + pad}

		s.tree.Search(min, max, func(_, _ [2]float64, entry snapEntry) bool {
			u := entry.source
			v := s.g.Head[entry.edgeIdx]

			exactDist, ratio := geo.PointToSegmentDist(
				lat, lng,
				s.g.NodeLat[u], s.g.NodeLon[u],
				s.g.NodeLat[v], s.g.NodeLon[v],
			)

			if exactDist < bestDist {
				bestDist = exactDist
				found = true
				bestResult = SnapResult{
					EdgeIdx: entry.edgeIdx,
					NodeU:   u,
					NodeV:   v,
					Ratio:   ratio,
					Dist:    exactDist,
				}
			}
			return true
		})

		if found && bestDist <= maxSnapDistMeters {
			break
		}
		pad *= 3 // widen the search window and retry
	}

	if !found || bestDist > maxSnapDistMeters {
		return SnapResult{}, ErrPointTooFar
	}

	return bestResult, nil
}
