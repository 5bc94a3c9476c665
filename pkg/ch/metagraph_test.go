package ch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msioen/routing/pkg/graph"
)

func TestMetaGraph_RemoveEdgesIncidentClearsOwnAndNeighborAdjacency(t *testing.T) {
	mg := &metaGraph{adj: make([][]metaEdge, 4), contracted: make([]bool, 4)}
	mg.addOrUpdateEdge(0, 1, -1, graph.DirBoth, 10)
	mg.addOrUpdateEdge(1, 2, -1, graph.DirBoth, 20)
	mg.addOrUpdateEdge(1, 3, -1, graph.DirBoth, 30)

	require.Len(t, mg.rawEdgesOf(1), 3, "node 1 starts with edges to 0, 2, and 3")

	mg.removeEdgesIncident(1)

	assert.Empty(t, mg.rawEdgesOf(1), "v's own adjacency list must be freed")
	for _, neighbor := range []uint32{0, 2, 3} {
		for _, e := range mg.rawEdgesOf(neighbor) {
			assert.NotEqual(t, uint32(1), e.to, "neighbor %d must no longer reference the removed vertex", neighbor)
		}
	}
}

func TestMetaGraph_RemoveEdgesIncidentIsNoopOnIsolatedVertex(t *testing.T) {
	mg := &metaGraph{adj: make([][]metaEdge, 2), contracted: make([]bool, 2)}
	assert.NotPanics(t, func() { mg.removeEdgesIncident(0) })
	assert.Empty(t, mg.rawEdgesOf(0))
}

func TestMetaGraph_EdgesOfIsNilOnceContracted(t *testing.T) {
	mg := &metaGraph{adj: make([][]metaEdge, 2), contracted: make([]bool, 2)}
	mg.addOrUpdateEdge(0, 1, -1, graph.DirBoth, 5)

	mg.contracted[0] = true
	assert.Nil(t, mg.edgesOf(0), "edgesOf must hide a contracted vertex's edges")
	assert.NotEmpty(t, mg.rawEdgesOf(0), "rawEdgesOf must still expose them for the overlay harvest")
}

// fixedMetricHandler scales every ingested weight by a constant factor,
// so newMetaGraph's use of GetMetric is directly observable.
type fixedMetricHandler struct{ scale float64 }

func (h fixedMetricHandler) GetMetric(weight float64) float64 { return weight * h.scale }
func (h fixedMetricHandler) Serialize(weight float64) uint32  { return uint32(weight) }

func TestNewMetaGraph_RoutesWeightsThroughGetMetric(t *testing.T) {
	g := &graph.Graph{
		NumNodes:       2,
		NumEdges:       1,
		FirstOut:       []uint32{0, 1, 1},
		Head:           []uint32{1},
		ForwardWeight:  []uint32{10},
		BackwardWeight: []uint32{10},
	}

	mg := newMetaGraph(g, 0.1, fixedMetricHandler{scale: 2})

	edges := mg.rawEdgesOf(0)
	require.Len(t, edges, 1)
	assert.Equal(t, 20.0, edges[0].weight, "the stored weight must be GetMetric's output, not the raw CSR value")
}
