// Package ch implements Contraction Hierarchies preprocessing: given a
// dual-weighted directed routing graph, it produces an augmented graph
// in which shortest-path queries between any two vertices can be
// answered by bidirectional Dijkstra restricted to edges going "upward"
// in a total vertex ordering (Contract's return value). The query-time
// search itself lives in pkg/routing.
package ch

import (
	"log"
	"sort"

	"github.com/msioen/routing/pkg/graph"
)

// overlayEdge is one edge destined for the forward or backward upward
// CSR overlay, collected while a vertex is contracted.
type overlayEdge struct {
	from, to uint32
	weight   float64
	via      int32
	dir      graph.Direction
}

// refreshSet is the deferred witness-refresh set R (§3): vertices whose
// incident edges changed since W was last updated around them.
type refreshSet struct {
	member []bool
	list   []uint32
}

func newRefreshSet(n uint32) *refreshSet {
	return &refreshSet{member: make([]bool, n)}
}

func (r *refreshSet) add(v uint32) {
	if !r.member[v] {
		r.member[v] = true
		r.list = append(r.list, v)
	}
}

func (r *refreshSet) overlap(edges []relevantEdge) int {
	n := 0
	for _, e := range edges {
		if r.member[e.neighbor] {
			n++
		}
	}
	return n
}

func (r *refreshSet) clear() {
	for _, v := range r.list {
		r.member[v] = false
	}
	r.list = r.list[:0]
}

// builder (C6) is the hierarchy builder driver. It exclusively owns the
// meta-graph, the witness graph, the priority queue, the refresh set,
// and the depth/contracted-neighbour bookkeeping (§3 ownership rule).
type builder struct {
	cfg     Config
	handler WeightHandler
	n       uint32

	mg      *metaGraph
	wg      *witnessGraph
	pq      *lazyQueue
	nw      neighbourWitness
	refresh *refreshSet

	depth  []int
	kcount []int
	rank   []uint32
	order  uint32

	fwdOverlay []overlayEdge
	bwdOverlay []overlayEdge
}

func newBuilder(g *graph.Graph, cfg Config, handler WeightHandler) *builder {
	n := g.NumNodes
	return &builder{
		cfg:     cfg,
		handler: handler,
		n:       n,
		mg:      newMetaGraph(g, cfg.ShortcutEqualityTolerance, handler),
		wg:      newWitnessGraph(n),
		pq:      newLazyQueue(cfg.QueueMissWindow),
		nw:      neighbourWitness{cfg: cfg},
		refresh: newRefreshSet(n),
		depth:   make([]int, n),
		kcount:  make([]int, n),
		rank:    make([]uint32, n),
	}
}

// Contract performs Contraction Hierarchies preprocessing on g and
// returns the augmented overlay graph. See the package doc.
func Contract(g *graph.Graph, opts ...Option) *graph.CHGraph {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if g.NumNodes == 0 {
		return &graph.CHGraph{}
	}

	handler := defaultWeightHandler{}
	if err := validateWeightHandler(handler, g); err != nil {
		log.Fatalf("ch: %v", err)
	}

	b := newBuilder(g, cfg, handler)

	log.Printf("Seeding witness graph for %d nodes...", b.n)
	b.seedWitnessGraph()

	log.Printf("Calculating initial priority queue...")
	b.initQueue()

	log.Printf("Starting contraction of %d nodes...", b.n)
	logInterval := uint32(50000)
	for b.pq.Len() > 0 {
		v, info, ok := b.popNext()
		if !ok {
			break
		}
		b.contract(v, info)

		remaining := b.n - b.order
		switch {
		case remaining < 1000:
			logInterval = 100
		case remaining < 10000:
			logInterval = 1000
		case remaining < 100000:
			logInterval = 10000
		default:
			logInterval = 50000
		}
		if b.order%logInterval == 0 {
			log.Printf("Contracted %d/%d nodes", b.order, b.n)
		}
	}

	// Final witness refresh drain at algorithm exit (§4.7): flush any
	// still-pending refresh entries even though W is discarded right
	// after — completeness of the refresh step doesn't depend on what
	// happens to use it next.
	b.drainRefresh()

	log.Printf("Contraction complete: %d forward overlay edges, %d backward overlay edges",
		len(b.fwdOverlay), len(b.bwdOverlay))

	return b.buildOverlay(g)
}

// seedWitnessGraph runs the neighbour witness calculator (C3) once from
// every vertex, seeding W before any contraction happens (C6 step 1).
func (b *builder) seedWitnessGraph() {
	for s := uint32(0); s < b.n; s++ {
		for _, obs := range b.nw.run(b.mg, s, nil) {
			b.wg.addOrUpdateEdge(s, obs.target, obs.forward)
			b.wg.addOrUpdateEdge(obs.target, s, obs.backward)
		}
	}
}

// initQueue evaluates every vertex via C4 and pushes it into the queue
// (C6 step 2).
func (b *builder) initQueue() {
	for v := uint32(0); v < b.n; v++ {
		info := buildVertexInfo(b.mg, b.wg, b.cfg, v, b.depth[v], b.kcount[v])
		b.pq.push(pqItem{vertex: v, priority: info.Priority})
	}
}

// evaluate recomputes v's VertexInfo, draining the witness refresh set
// first if at least two of v's relevant neighbours are pending a refresh
// (§4.7's witness refresh draining trigger).
func (b *builder) evaluate(v uint32) VertexInfo {
	edges := relevantEdgesOf(b.mg, v)
	if b.refresh.overlap(edges) >= 2 {
		b.drainRefresh()
	}
	return buildVertexInfo(b.mg, b.wg, b.cfg, v, b.depth[v], b.kcount[v])
}

// popNext implements the C5 pop state machine: peek, discard stale
// (already-contracted) entries, recompute via C4, accept on a matching
// priority or re-push and record a miss otherwise, recalculating the
// whole queue once the miss window saturates.
func (b *builder) popNext() (uint32, VertexInfo, bool) {
	for {
		if b.pq.Len() == 0 {
			return 0, VertexInfo{}, false
		}
		top := b.pq.popRaw()
		if b.mg.contracted[top.vertex] {
			continue
		}

		info := b.evaluate(top.vertex)
		if info.Priority == top.priority {
			b.pq.recordHit()
			return top.vertex, info, true
		}

		b.pq.push(pqItem{vertex: top.vertex, priority: info.Priority})
		if b.pq.recordMiss() {
			b.recalculateQueue()
		}
	}
}

// recalculateQueue (CalculateQueue, §4.5) drops the heap and re-evaluates
// every uncontracted vertex from scratch.
func (b *builder) recalculateQueue() {
	b.pq.reset()
	for v := uint32(0); v < b.n; v++ {
		if b.mg.contracted[v] {
			continue
		}
		info := b.evaluate(v)
		b.pq.push(pqItem{vertex: v, priority: info.Priority})
	}
}

// drainRefresh re-runs the neighbour witness calculator from every
// vertex in R, restricted to R as its termination set, and clears R
// (§4.7's witness refresh draining).
func (b *builder) drainRefresh() {
	if len(b.refresh.list) == 0 {
		return
	}
	restrict := make(map[uint32]bool, len(b.refresh.list))
	for _, u := range b.refresh.list {
		restrict[u] = true
	}
	for _, u := range b.refresh.list {
		if b.mg.contracted[u] {
			continue
		}
		for _, obs := range b.nw.run(b.mg, u, restrict) {
			b.wg.addOrUpdateEdge(u, obs.target, obs.forward)
			b.wg.addOrUpdateEdge(obs.target, u, obs.backward)
		}
	}
	b.refresh.clear()
	b.wg.compress()
}

// contract performs the §4.7 contraction procedure for v using its
// already-computed VertexInfo.
func (b *builder) contract(v uint32, info VertexInfo) {
	// Capture v's own edges for the overlay before anything is mutated —
	// these, restricted to still-uncontracted neighbours (guaranteed
	// since edgesOf only ever holds live neighbours), are exactly the
	// upward edges the hierarchy keeps for v.
	for _, e := range b.mg.rawEdgesOf(v) {
		if e.dir == graph.DirBoth || e.dir == graph.DirForwardOnly {
			b.fwdOverlay = append(b.fwdOverlay, overlayEdge{from: v, to: e.to, weight: e.weight, via: e.via, dir: e.dir})
		}
		if e.dir == graph.DirBoth || e.dir == graph.DirBackwardOnly {
			b.bwdOverlay = append(b.bwdOverlay, overlayEdge{from: v, to: e.to, weight: e.weight, via: e.via, dir: e.dir})
		}
	}

	// Step 2: insert the surviving shortcuts and mark their endpoints
	// for a deferred witness refresh.
	for _, s := range info.PrunedShortcuts {
		if s.a == s.b {
			continue // self-loop guard (§7)
		}
		b.insertShortcut(v, s)
		b.refresh.add(s.a)
		b.refresh.add(s.b)
	}

	// Step 1: "downward" removal — every neighbour stops seeing v, and
	// v's own now-dead adjacency storage is freed in the same pass
	// (remove_edges(v), §4.1).
	b.mg.removeEdgesIncident(v)

	// Step 3.
	b.mg.contracted[v] = true
	b.rank[v] = b.order
	b.order++

	// Step 4: depth/contracted-neighbour bookkeeping, and drop (n,v)
	// from W.
	for _, e := range info.RelevantEdges {
		n := e.neighbor
		if b.depth[v]+1 > b.depth[n] {
			b.depth[n] = b.depth[v] + 1
		}
		b.kcount[n]++
		b.wg.removeEdge(n, v)
	}

	// Step 5: purge v from W entirely; D and K are read-only for v from
	// here on (enforced simply by never reading them again).
	b.wg.removeEdgesIncident(v)
}

// insertShortcut implements the §4.1/§4.7 merge rule for one surviving
// shortcut: a single bidirectional edge when both sides are finite and
// agree within tolerance, otherwise up to two direction-restricted
// edges, each mirrored onto both endpoints by addOrUpdateEdge itself.
func (b *builder) insertShortcut(v uint32, s shortcut) {
	tol := b.cfg.ShortcutEqualityTolerance
	fwdOK := s.forward < infCost && s.forward > 0
	bwdOK := s.backward < infCost && s.backward > 0
	if !fwdOK && !bwdOK {
		return
	}
	if fwdOK && bwdOK && absFloat(s.forward-s.backward) < tol {
		b.mg.addOrUpdateEdge(s.a, s.b, int32(v), graph.DirBoth, s.forward)
		return
	}
	if fwdOK {
		b.mg.addOrUpdateEdge(s.a, s.b, int32(v), graph.DirForwardOnly, s.forward)
	}
	if bwdOK {
		b.mg.addOrUpdateEdge(s.b, s.a, int32(v), graph.DirForwardOnly, s.backward)
	}
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// buildOverlay assembles the final CHGraph from the overlay edges
// collected during contraction and the original graph's pass-through
// data (geometry, original CSR, node coordinates).
func (b *builder) buildOverlay(orig *graph.Graph) *graph.CHGraph {
	fwdFirstOut, fwdHead, fwdWeight, fwdVia, fwdDir := buildOverlayCSR(b.n, b.fwdOverlay, b.handler)
	bwdFirstOut, bwdHead, bwdWeight, bwdVia, bwdDir := buildOverlayCSR(b.n, b.bwdOverlay, b.handler)

	return &graph.CHGraph{
		NumNodes: b.n,
		NodeLat:  orig.NodeLat,
		NodeLon:  orig.NodeLon,
		Rank:     b.rank,

		FwdFirstOut: fwdFirstOut,
		FwdHead:     fwdHead,
		FwdWeight:   fwdWeight,
		FwdVia:      fwdVia,
		FwdDir:      fwdDir,

		BwdFirstOut: bwdFirstOut,
		BwdHead:     bwdHead,
		BwdWeight:   bwdWeight,
		BwdVia:      bwdVia,
		BwdDir:      bwdDir,

		OrigFirstOut:       orig.FirstOut,
		OrigHead:           orig.Head,
		OrigForwardWeight:  orig.ForwardWeight,
		OrigBackwardWeight: orig.BackwardWeight,

		GeoFirstOut: orig.GeoFirstOut,
		GeoShapeLat: orig.GeoShapeLat,
		GeoShapeLon: orig.GeoShapeLon,
	}
}

// buildOverlayCSR sorts overlay edges by source and lays them out as a
// CSR block, serializing each weight through handler.
func buildOverlayCSR(n uint32, edges []overlayEdge, handler WeightHandler) (firstOut, head, weight []uint32, via []int32, dir []graph.Direction) {
	sort.Slice(edges, func(i, j int) bool { return edges[i].from < edges[j].from })

	firstOut = make([]uint32, n+1)
	for _, e := range edges {
		firstOut[e.from+1]++
	}
	for i := uint32(1); i <= n; i++ {
		firstOut[i] += firstOut[i-1]
	}

	m := uint32(len(edges))
	head = make([]uint32, m)
	weight = make([]uint32, m)
	via = make([]int32, m)
	dir = make([]graph.Direction, m)

	pos := append([]uint32(nil), firstOut[:n]...)
	for _, e := range edges {
		idx := pos[e.from]
		head[idx] = e.to
		weight[idx] = handler.Serialize(e.weight)
		via[idx] = e.via
		dir[idx] = e.dir
		pos[e.from]++
	}
	return
}
