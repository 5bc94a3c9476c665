package ch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWitnessGraph_AddOrUpdateKeepsMinimum(t *testing.T) {
	w := newWitnessGraph(3)
	w.addOrUpdateEdge(0, 1, 10)
	assert.Equal(t, 10.0, w.weight(0, 1))

	w.addOrUpdateEdge(0, 1, 5)
	assert.Equal(t, 5.0, w.weight(0, 1), "a lower weight must replace the stored bound")

	w.addOrUpdateEdge(0, 1, 7)
	assert.Equal(t, 5.0, w.weight(0, 1), "a higher weight must not overwrite a lower one")
}

func TestWitnessGraph_WeightDefaultsToInfinite(t *testing.T) {
	w := newWitnessGraph(2)
	assert.Equal(t, infCost, w.weight(0, 1))
}

func TestWitnessGraph_RemoveEdgeTombstones(t *testing.T) {
	w := newWitnessGraph(2)
	w.addOrUpdateEdge(0, 1, 10)
	w.removeEdge(0, 1)
	assert.Equal(t, infCost, w.weight(0, 1))

	// removing again is a no-op, not a double-decrement.
	before := w.edgeCount
	w.removeEdge(0, 1)
	assert.Equal(t, before, w.edgeCount)
}

func TestWitnessGraph_RemoveEdgesIncidentClearsBothDirections(t *testing.T) {
	w := newWitnessGraph(3)
	w.addOrUpdateEdge(0, 1, 10)
	w.addOrUpdateEdge(1, 2, 20)
	w.addOrUpdateEdge(2, 1, 30)

	w.removeEdgesIncident(1)

	assert.Equal(t, infCost, w.weight(0, 1))
	assert.Equal(t, infCost, w.weight(1, 2))
	assert.Equal(t, infCost, w.weight(2, 1))
}

func TestWitnessGraph_CompressReclaimsTombstones(t *testing.T) {
	w := newWitnessGraph(20)
	// Populate many distinct edges out of node 0, then tombstone all but
	// one, so edgeSpace grows well past the 4x-live-edges threshold.
	for v := uint32(1); v < 20; v++ {
		w.addOrUpdateEdge(0, v, float64(v))
	}
	for v := uint32(2); v < 20; v++ {
		w.removeEdge(0, v)
	}
	assert.Equal(t, 1, w.edgeCount)
	assert.Greater(t, w.edgeSpace, 4*w.edgeCount)

	w.compress()
	assert.LessOrEqual(t, w.edgeSpace, 4*w.edgeCount+1)
	assert.Equal(t, 1.0, w.weight(0, 1), "compress must not lose the surviving edge")
}
