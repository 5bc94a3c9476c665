package ch

import (
	"errors"

	"github.com/msioen/routing/pkg/graph"
)

// ErrUnsupportedWeightHandler is returned when a WeightHandler cannot
// operate on the graph given to Contract. Reported once at construction;
// preprocessing never attempts a partial recovery.
var ErrUnsupportedWeightHandler = errors.New("ch: weight handler does not support this graph")

// WeightHandler decouples the contraction core from the concrete numeric
// representation of edge weights, per the preprocessor's external
// interface contract (§6): serialize converts an internal weight to the
// payload stored on an overlay edge, get_metric extracts a comparable
// real value.
type WeightHandler interface {
	GetMetric(weight float64) float64
	Serialize(weight float64) uint32
}

// defaultWeightHandler treats weights as the millimeter distances
// pkg/graph already uses, saturating at graph.InfWeight.
type defaultWeightHandler struct{}

func (defaultWeightHandler) GetMetric(weight float64) float64 { return weight }

func (defaultWeightHandler) Serialize(weight float64) uint32 {
	if weight < 0 {
		return 0
	}
	if weight >= float64(graph.InfWeight) {
		return graph.InfWeight
	}
	return uint32(weight + 0.5)
}

// validateWeightHandler checks that h can operate on g's edge arrays
// before a single vertex is touched.
func validateWeightHandler(h WeightHandler, g *graph.Graph) error {
	if h == nil {
		return ErrUnsupportedWeightHandler
	}
	if len(g.ForwardWeight) != int(g.NumEdges) || len(g.BackwardWeight) != int(g.NumEdges) {
		return ErrUnsupportedWeightHandler
	}
	return nil
}
