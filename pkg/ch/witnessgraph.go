package ch

// witnessEdge is one directed, single-weight entry in the witness graph.
// A weight of infCost is a tombstone left behind by removal, reclaimed
// later by compress.
type witnessEdge struct {
	to     uint32
	weight float64
}

// witnessGraph (C2) is a secondary directed graph with at most one live
// edge per (u,v) pair, used as an upper-bound oracle for shortcut
// pruning. See the design doc's open question on why "W(u,v) <=
// candidate" is treated as proof of an alternative path even though C3
// only ever produces upper bounds — that heuristic is preserved here
// exactly as specified, not corrected.
//
// in is a reverse index mirroring the same add-once bookkeeping
// metaGraph.addOrUpdateEdge uses to keep both endpoints' adjacency in
// sync: in[v] lists every u that has ever owned an edge to v, so
// removeEdgesIncident can find v's incoming edges in O(degree(v))
// instead of scanning every vertex in the graph. Unlike metaGraph's
// mirroring, no weight is duplicated here — out remains the only place
// a weight is stored, since a witness edge's forward and reverse
// directions are independent, differently-weighted edges, not two
// views of the same one.
type witnessGraph struct {
	out       [][]witnessEdge
	in        [][]uint32
	edgeCount int
	edgeSpace int
}

func newWitnessGraph(n uint32) *witnessGraph {
	return &witnessGraph{out: make([][]witnessEdge, n), in: make([][]uint32, n)}
}

// addOrUpdateEdge keeps the minimum weight recorded for (u,v).
func (w *witnessGraph) addOrUpdateEdge(u, v uint32, weight float64) {
	list := w.out[u]
	for i := range list {
		if list[i].to != v {
			continue
		}
		wasLive := list[i].weight < infCost
		if weight < list[i].weight {
			list[i].weight = weight
		}
		if list[i].weight < infCost && !wasLive {
			w.edgeCount++
		}
		return
	}
	w.out[u] = append(w.out[u], witnessEdge{to: v, weight: weight})
	w.in[v] = append(w.in[v], u)
	w.edgeSpace++
	if weight < infCost {
		w.edgeCount++
	}
}

// weight returns the recorded bound for (u,v), or infCost if none.
func (w *witnessGraph) weight(u, v uint32) float64 {
	for _, e := range w.out[u] {
		if e.to == v && e.weight < infCost {
			return e.weight
		}
	}
	return infCost
}

// removeEdge tombstones the single (u,v) witness edge, if present.
func (w *witnessGraph) removeEdge(u, v uint32) {
	for i := range w.out[u] {
		if w.out[u][i].to == v && w.out[u][i].weight < infCost {
			w.out[u][i].weight = infCost
			w.edgeCount--
			return
		}
	}
}

// removeEdgesIncident tombstones every witness edge touching v, in
// either direction (§4.7 step 5). The incoming side walks in[v] — the
// set of vertices that have ever pointed at v — rather than every vertex
// in the graph, so this runs in O(degree(v)) instead of O(N).
func (w *witnessGraph) removeEdgesIncident(v uint32) {
	for i := range w.out[v] {
		if w.out[v][i].weight < infCost {
			w.out[v][i].weight = infCost
			w.edgeCount--
		}
	}
	for _, u := range w.in[v] {
		if u == v {
			continue
		}
		w.removeEdge(u, v)
	}
}

// compress reclaims tombstoned slots once the adjacency storage has
// grown past 4x its live edge count (§4.2). The reverse index is rebuilt
// alongside out so in[v] never accumulates stale entries beyond what
// compress already reclaims from out.
func (w *witnessGraph) compress() {
	if w.edgeSpace <= 4*max(w.edgeCount, 1) {
		return
	}
	newSpace := 0
	newIn := make([][]uint32, len(w.out))
	for u := range w.out {
		list := w.out[u]
		compacted := list[:0]
		for _, e := range list {
			if e.weight < infCost {
				compacted = append(compacted, e)
				newIn[e.to] = append(newIn[e.to], uint32(u))
			}
		}
		w.out[u] = compacted
		newSpace += len(compacted)
	}
	w.in = newIn
	w.edgeSpace = newSpace
}
