package ch

// relevantEdge (C4) is one distinct neighbour of a candidate vertex,
// with the best known weight to and from it across any parallel
// meta-edges.
type relevantEdge struct {
	neighbor  uint32
	toOwner   float64 // neighbor -> owner
	fromOwner float64 // owner -> neighbor
}

// shortcut is a candidate, or surviving, shortcut for an unordered
// neighbour pair (a, b): forward is the a->b cost through the
// contraction candidate, backward the b->a cost.
type shortcut struct {
	a, b     uint32
	forward  float64
	backward float64
}

// VertexInfo (C4) is the transient per-evaluation record computed for
// one candidate vertex: its relevant neighbours, the shortcuts
// contracting it would require, the subset that survive witness
// pruning, and the resulting priority score.
type VertexInfo struct {
	Vertex               uint32
	DepthSnapshot        int
	ContractedNeighbours int
	RelevantEdges        []relevantEdge
	CandidateShortcuts   []shortcut
	PrunedShortcuts      []shortcut
	UsedWitness          bool
	Priority             float64
}

// buildVertexInfo computes v's VertexInfo against the current state of
// mg and w. It borrows both and mutates neither.
func buildVertexInfo(mg *metaGraph, w *witnessGraph, cfg Config, v uint32, depth, contractedNeighbours int) VertexInfo {
	edges := relevantEdgesOf(mg, v)
	candidates := candidateShortcuts(edges)
	pruned, used := pruneShortcuts(w, candidates, cfg.ShortcutEqualityTolerance)

	info := VertexInfo{
		Vertex:               v,
		DepthSnapshot:        depth,
		ContractedNeighbours: contractedNeighbours,
		RelevantEdges:        edges,
		CandidateShortcuts:   candidates,
		PrunedShortcuts:      pruned,
		UsedWitness:          used,
	}
	info.Priority = priorityOf(cfg, info)
	return info
}

// relevantEdgesOf collapses v's (possibly parallel) meta-edges into one
// entry per distinct neighbour, keeping the best forward/backward weight
// seen for each.
func relevantEdgesOf(mg *metaGraph, v uint32) []relevantEdge {
	type agg struct{ toOwner, fromOwner float64 }
	byNeighbor := make(map[uint32]*agg)
	var order []uint32

	for _, e := range mg.edgesOf(v) {
		a, ok := byNeighbor[e.to]
		if !ok {
			a = &agg{toOwner: infCost, fromOwner: infCost}
			byNeighbor[e.to] = a
			order = append(order, e.to)
		}
		if c := e.bwdCost(); c < a.toOwner {
			a.toOwner = c
		}
		if c := e.fwdCost(); c < a.fromOwner {
			a.fromOwner = c
		}
	}

	edges := make([]relevantEdge, 0, len(order))
	for _, n := range order {
		a := byNeighbor[n]
		edges = append(edges, relevantEdge{neighbor: n, toOwner: a.toOwner, fromOwner: a.fromOwner})
	}
	return edges
}

// candidateShortcuts builds one shortcut record per unordered pair of
// v's relevant neighbours, skipping the self-loop guard of §7 and pairs
// with no finite side in either direction.
func candidateShortcuts(edges []relevantEdge) []shortcut {
	var out []shortcut
	for i := 0; i < len(edges); i++ {
		for j := i + 1; j < len(edges); j++ {
			u, w := edges[i], edges[j]
			if u.neighbor == w.neighbor {
				continue
			}
			fwd := addCost(u.toOwner, w.fromOwner) // u -> v -> w
			bwd := addCost(w.toOwner, u.fromOwner)  // w -> v -> u
			if fwd >= infCost && bwd >= infCost {
				continue
			}
			out = append(out, shortcut{a: u.neighbor, b: w.neighbor, forward: fwd, backward: bwd})
		}
	}
	return out
}

func addCost(a, b float64) float64 {
	if a >= infCost || b >= infCost {
		return infCost
	}
	return a + b
}

// pruneShortcuts drops each candidate side already certified redundant
// by the witness graph: a side survives only if W does not already show
// a path of equal-or-lower weight for it, within tolerance (§4.4).
func pruneShortcuts(w *witnessGraph, candidates []shortcut, tol float64) ([]shortcut, bool) {
	var kept []shortcut
	usedWitness := false

	for _, c := range candidates {
		fwd, bwd := c.forward, c.backward
		if fwd < infCost {
			if wit := w.weight(c.a, c.b); wit <= fwd+tol {
				fwd = infCost
				usedWitness = true
			}
		}
		if bwd < infCost {
			if wit := w.weight(c.b, c.a); wit <= bwd+tol {
				bwd = infCost
				usedWitness = true
			}
		}
		if fwd >= infCost && bwd >= infCost {
			continue
		}
		kept = append(kept, shortcut{a: c.a, b: c.b, forward: fwd, backward: bwd})
	}
	return kept, usedWitness
}

// priorityOf computes the C4 priority score: lower contracts sooner.
func priorityOf(cfg Config, info VertexInfo) float64 {
	diff := float64(len(info.PrunedShortcuts) - len(info.RelevantEdges))
	return cfg.DifferenceFactor*diff +
		cfg.DepthFactor*float64(info.DepthSnapshot) +
		cfg.ContractedFactor*float64(info.ContractedNeighbours)
}
