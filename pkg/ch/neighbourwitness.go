package ch

// witnessObservation is one (s, t) pair produced by a neighbour witness
// search: forward is the best s->t distance found, backward the best
// t->s distance, each infCost if unreached within the hop bound.
type witnessObservation struct {
	target   uint32
	forward  float64
	backward float64
}

// neighbourWitness (C3) runs a bounded forward and backward search from
// a source over a metaGraph, borrowing it for the duration of the call
// and never mutating it.
type neighbourWitness struct {
	cfg Config
}

// run performs the cfg.WitnessMaxHops-bounded search from s and reports
// every vertex reached in either direction. When restrict is non-nil,
// only vertices present in restrict are reported — the early-termination
// set named in §4.3 point 3, applied here as a post-search filter rather
// than a branch cut, since the spec only requires the result to agree
// with one, not the exact traversal shape.
func (nw neighbourWitness) run(mg *metaGraph, s uint32, restrict map[uint32]bool) []witnessObservation {
	fwdDist := boundedSearch(mg, s, nw.cfg, true)
	bwdDist := boundedSearch(mg, s, nw.cfg, false)

	seen := make(map[uint32]bool, len(fwdDist)+len(bwdDist))
	for t := range fwdDist {
		seen[t] = true
	}
	for t := range bwdDist {
		seen[t] = true
	}

	obs := make([]witnessObservation, 0, len(seen))
	for t := range seen {
		if restrict != nil && !restrict[t] {
			continue
		}
		f, ok := fwdDist[t]
		if !ok {
			f = infCost
		}
		b, ok := bwdDist[t]
		if !ok {
			b = infCost
		}
		obs = append(obs, witnessObservation{target: t, forward: f, backward: b})
	}
	return obs
}

// boundedSearch runs a hop- and settled-count-bounded Dijkstra from s,
// following forward edges (owner->neighbour) when forward is true and
// the reversed direction otherwise. The returned map excludes s itself.
func boundedSearch(mg *metaGraph, s uint32, cfg Config, forward bool) map[uint32]float64 {
	dist := map[uint32]float64{s: 0}
	h := &distHeap{}
	h.push(distItem{node: s, dist: 0, hops: 0})

	settled := 0
	for h.len() > 0 {
		cur := h.pop()
		if cur.dist > dist[cur.node] {
			continue // stale heap entry
		}
		settled++
		if settled > cfg.WitnessMaxSettled {
			break
		}
		if cur.hops >= cfg.WitnessMaxHops {
			continue
		}
		if mg.contracted[cur.node] {
			continue
		}
		for _, e := range mg.adj[cur.node] {
			if mg.contracted[e.to] {
				continue
			}
			var step float64
			if forward {
				step = e.fwdCost()
			} else {
				step = e.bwdCost()
			}
			if step >= infCost {
				continue
			}
			nd := cur.dist + step
			if d, ok := dist[e.to]; !ok || nd < d {
				dist[e.to] = nd
				h.push(distItem{node: e.to, dist: nd, hops: cur.hops + 1})
			}
		}
	}

	delete(dist, s)
	return dist
}

// distItem is one entry of the witness search heap.
type distItem struct {
	node uint32
	dist float64
	hops int
}

// distHeap is a plain array-backed binary min-heap over distItem,
// matching the no-container/heap idiom used throughout this package.
type distHeap struct{ items []distItem }

func (h *distHeap) len() int { return len(h.items) }

func (h *distHeap) push(it distItem) {
	h.items = append(h.items, it)
	i := len(h.items) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if h.items[i].dist >= h.items[parent].dist {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *distHeap) pop() distItem {
	top := h.items[0]
	n := len(h.items) - 1
	h.items[0] = h.items[n]
	h.items = h.items[:n]
	i := 0
	for {
		child := 2*i + 1
		if child >= n {
			break
		}
		if right := child + 1; right < n && h.items[right].dist < h.items[child].dist {
			child = right
		}
		if h.items[i].dist <= h.items[child].dist {
			break
		}
		h.items[i], h.items[child] = h.items[child], h.items[i]
		i = child
	}
	return top
}
