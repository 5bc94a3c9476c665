package ch

import (
	"math"

	"github.com/msioen/routing/pkg/graph"
)

// infCost is the package-wide +∞ sentinel for real-valued weights,
// distinct from graph.InfWeight (the serialized uint32 sentinel).
const infCost = math.MaxFloat64

// metaEdge is one side of a directed-or-bidirectional meta-graph edge
// (C1), stored at the owning vertex's adjacency list. dir is relative to
// owner->to: DirBoth means weight applies either way, DirForwardOnly
// means only owner->to is traversable at weight, DirBackwardOnly means
// only to->owner is.
type metaEdge struct {
	to     uint32
	via    int32 // -1 for an original edge, else the contracted vertex
	dir    graph.Direction
	weight float64
}

// fwdCost returns the cost of owner->to, or infCost if not traversable.
func (e metaEdge) fwdCost() float64 {
	if e.dir == graph.DirBoth || e.dir == graph.DirForwardOnly {
		return e.weight
	}
	return infCost
}

// bwdCost returns the cost of to->owner, or infCost if not traversable.
func (e metaEdge) bwdCost() float64 {
	if e.dir == graph.DirBoth || e.dir == graph.DirBackwardOnly {
		return e.weight
	}
	return infCost
}

// mirrorDir flips a direction flag to the other endpoint's point of view.
func mirrorDir(d graph.Direction) graph.Direction {
	switch d {
	case graph.DirForwardOnly:
		return graph.DirBackwardOnly
	case graph.DirBackwardOnly:
		return graph.DirForwardOnly
	default:
		return graph.DirBoth
	}
}

// metaGraph is the mutable directed multigraph (C1) the hierarchy
// builder operates on. It is owned exclusively by the builder; C3 and C4
// only ever borrow it to read during a call and return before any other
// mutation happens (§5).
type metaGraph struct {
	adj        [][]metaEdge
	contracted []bool
}

// newMetaGraph builds the initial meta-graph from a CSR routing graph,
// mirroring every CSR slot into both endpoints' adjacency lists so the
// contraction loop can walk neighbours from either side. Raw CSR weights
// are routed through handler.GetMetric before they ever become a
// metaEdge.weight, per §6's external-interface contract: the meta-graph
// never assumes a particular numeric representation for a weight, only
// that handler can turn one into a comparable float64.
func newMetaGraph(g *graph.Graph, tol float64, handler WeightHandler) *metaGraph {
	mg := &metaGraph{
		adj:        make([][]metaEdge, g.NumNodes),
		contracted: make([]bool, g.NumNodes),
	}
	for u := uint32(0); u < g.NumNodes; u++ {
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			v := g.Head[e]
			mg.addOriginalEdge(u, v, g.ForwardWeight[e], g.BackwardWeight[e], tol, handler)
		}
	}
	return mg
}

// addOriginalEdge installs one base-graph CSR slot as a meta-graph edge,
// choosing direction=both when the forward and backward weight agree
// within tolerance, and two direction-restricted edges otherwise — the
// same merge rule §4.1 uses for shortcuts. fwdWeight/bwdWeight are only
// converted through handler.GetMetric once OK, since graph.InfWeight
// itself is never a meaningful metric value.
func (mg *metaGraph) addOriginalEdge(u, v uint32, fwdWeight, bwdWeight uint32, tol float64, handler WeightHandler) {
	fwdOK := fwdWeight < graph.InfWeight
	bwdOK := bwdWeight < graph.InfWeight
	if !fwdOK && !bwdOK {
		return
	}

	var fwdMetric, bwdMetric float64
	if fwdOK {
		fwdMetric = handler.GetMetric(float64(fwdWeight))
	}
	if bwdOK {
		bwdMetric = handler.GetMetric(float64(bwdWeight))
	}

	if fwdOK && bwdOK && math.Abs(fwdMetric-bwdMetric) < tol {
		mg.addOrUpdateEdge(u, v, -1, graph.DirBoth, fwdMetric)
		return
	}
	if fwdOK {
		mg.addOrUpdateEdge(u, v, -1, graph.DirForwardOnly, fwdMetric)
	}
	if bwdOK {
		mg.addOrUpdateEdge(v, u, -1, graph.DirForwardOnly, bwdMetric)
	}
}

// addOrUpdateEdge implements the C1 add-or-update rule: an existing edge
// between u and v with the same direction flag takes the new weight (and
// via) only if the new weight is strictly smaller, and is otherwise left
// unchanged; a new edge is appended only when no edge with that direction
// flag exists yet, so parallel edges between u and v always differ in
// direction. Both endpoints' adjacency lists are updated symmetrically so
// either side can be used as the "owner" during reads.
func (mg *metaGraph) addOrUpdateEdge(u, v uint32, via int32, dir graph.Direction, weight float64) {
	if mg.contracted[u] || mg.contracted[v] {
		return
	}
	mg.adj[u] = upsertMetaEdge(mg.adj[u], metaEdge{to: v, via: via, dir: dir, weight: weight})
	mg.adj[v] = upsertMetaEdge(mg.adj[v], metaEdge{to: u, via: via, dir: mirrorDir(dir), weight: weight})
}

func upsertMetaEdge(list []metaEdge, e metaEdge) []metaEdge {
	for i := range list {
		if list[i].to == e.to && list[i].dir == e.dir {
			if e.weight < list[i].weight {
				list[i].weight = e.weight
				list[i].via = e.via
			}
			return list
		}
	}
	return append(list, e)
}

// edgesOf returns v's edges, or nil if v is already contracted (invariant
// 1/3: a contracted vertex exposes no edges through the public API).
func (mg *metaGraph) edgesOf(v uint32) []metaEdge {
	if mg.contracted[v] {
		return nil
	}
	return mg.adj[v]
}

// rawEdgesOf returns v's adjacency list regardless of contracted status.
// Only the overlay builder uses this, and only right before v is
// contracted: v's outgoing edges at that moment are exactly the upward
// edges it contributes to the hierarchy (§9). removeEdgesIncident frees
// this same storage immediately afterwards, so rawEdgesOf must be called
// before, never after, v's contraction step.
func (mg *metaGraph) rawEdgesOf(v uint32) []metaEdge {
	return mg.adj[v]
}

// removeNeighborRef deletes every meta-edge at owner's adjacency list
// whose target is to. The "downward" half of removeEdgesIncident: when v
// is contracted, every neighbour owner stops seeing v this way, one
// removeNeighborRef call per neighbour found in v's own adjacency list.
func (mg *metaGraph) removeNeighborRef(owner, to uint32) {
	list := mg.adj[owner]
	out := list[:0]
	for _, e := range list {
		if e.to != to {
			out = append(out, e)
		}
	}
	mg.adj[owner] = out
}

// removeEdgesIncident removes every edge touching v, in both endpoints'
// adjacency lists, including v's own — this is the C1 remove_edges(v)
// primitive (§4.1), used by contract's downward-removal step (§4.7 step
// 1) to both drop v from every neighbour's adjacency and free v's own
// now-dead storage in one pass.
func (mg *metaGraph) removeEdgesIncident(v uint32) {
	for _, e := range mg.adj[v] {
		mg.removeNeighborRef(e.to, v)
	}
	mg.adj[v] = nil
}
