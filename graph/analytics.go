package graph

import (
	"math"
	"sort"
)

const (
	DefaultDamping = 0.85
	DefaultMaxIter = 100
	DefaultTol     = 1e-6
)

// Analytics runs the graph algorithms from spec §4.5 over a fixed Graph
// snapshot. All algorithms are deterministic given the same input graph.
type Analytics struct {
	g *Graph
}

func NewAnalytics(g *Graph) *Analytics { return &Analytics{g: g} }

func (a *Analytics) Density() float64 {
	n := a.g.NumAgents()
	if n < 2 {
		return 0
	}
	return float64(a.g.NumEdges()) / float64(n*(n-1))
}

func (a *Analytics) Reciprocity() float64 {
	edges := a.g.NumEdges()
	if edges == 0 {
		return 0
	}
	mutual := 0
	for _, src := range a.g.Agents() {
		for dst := range a.g.OutNeighbors(src) {
			if a.g.HasEdge(dst, src) {
				mutual++
			}
		}
	}
	return float64(mutual) / float64(edges)
}

// ConnectedComponents returns weakly connected components, largest first.
func (a *Analytics) ConnectedComponents() [][]string {
	adj := a.g.ToUndirected()
	visited := make(map[string]bool)
	var components [][]string
	for _, start := range a.g.Agents() {
		if visited[start] {
			continue
		}
		var component []string
		queue := []string{start}
		for len(queue) > 0 {
			node := queue[0]
			queue = queue[1:]
			if visited[node] {
				continue
			}
			visited[node] = true
			component = append(component, node)
			for _, nb := range sortedUndirectedKeys(adj[node]) {
				if !visited[nb] {
					queue = append(queue, nb)
				}
			}
		}
		if len(component) > 0 {
			components = append(components, component)
		}
	}
	sort.SliceStable(components, func(i, j int) bool { return len(components[i]) > len(components[j]) })
	return components
}

// StronglyConnectedComponents runs Tarjan's algorithm in iterative form
// (spec §9: recursion would exhaust the stack for large graphs).
func (a *Analytics) StronglyConnectedComponents() [][]string {
	indexCounter := 0
	var stack []string
	onStack := make(map[string]bool)
	index := make(map[string]int)
	lowlink := make(map[string]int)
	var sccs [][]string

	type frame struct {
		node      string
		neighbors []string
		i         int
	}

	for _, v := range a.g.Agents() {
		if _, seen := index[v]; seen {
			continue
		}
		work := []*frame{{node: v, neighbors: sortedOutNeighborKeys(a.g.OutNeighbors(v))}}
		index[v] = indexCounter
		lowlink[v] = indexCounter
		indexCounter++
		stack = append(stack, v)
		onStack[v] = true

		for len(work) > 0 {
			top := work[len(work)-1]
			if top.i < len(top.neighbors) {
				w := top.neighbors[top.i]
				top.i++
				if _, seen := index[w]; !seen {
					index[w] = indexCounter
					lowlink[w] = indexCounter
					indexCounter++
					stack = append(stack, w)
					onStack[w] = true
					work = append(work, &frame{node: w, neighbors: sortedOutNeighborKeys(a.g.OutNeighbors(w))})
				} else if onStack[w] {
					if index[w] < lowlink[top.node] {
						lowlink[top.node] = index[w]
					}
				}
			} else {
				work = work[:len(work)-1]
				if len(work) > 0 {
					parent := work[len(work)-1]
					if lowlink[top.node] < lowlink[parent.node] {
						lowlink[parent.node] = lowlink[top.node]
					}
				}
				if lowlink[top.node] == index[top.node] {
					var scc []string
					for {
						n := len(stack) - 1
						w := stack[n]
						stack = stack[:n]
						onStack[w] = false
						scc = append(scc, w)
						if w == top.node {
							break
						}
					}
					sccs = append(sccs, scc)
				}
			}
		}
	}
	sort.SliceStable(sccs, func(i, j int) bool { return len(sccs[i]) > len(sccs[j]) })
	return sccs
}

func (a *Analytics) BFSDistances(source string) map[string]int {
	dist := map[string]int{source: 0}
	queue := []string{source}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, nb := range sortedOutNeighborKeys(a.g.OutNeighbors(node)) {
			if _, ok := dist[nb]; !ok {
				dist[nb] = dist[node] + 1
				queue = append(queue, nb)
			}
		}
	}
	return dist
}

// Diameter returns the diameter of the largest weakly connected component,
// or -1 if the graph is empty.
func (a *Analytics) Diameter() int {
	components := a.ConnectedComponents()
	if len(components) == 0 {
		return -1
	}
	largest := components[0]
	if len(largest) < 2 {
		return 0
	}
	largestSet := make(map[string]bool, len(largest))
	for _, x := range largest {
		largestSet[x] = true
	}
	adj := a.g.ToUndirected()
	maxDist := 0
	for _, start := range largest {
		dist := map[string]int{start: 0}
		queue := []string{start}
		for len(queue) > 0 {
			node := queue[0]
			queue = queue[1:]
			for _, nb := range sortedUndirectedKeys(adj[node]) {
				if _, ok := dist[nb]; !ok && largestSet[nb] {
					dist[nb] = dist[node] + 1
					if dist[nb] > maxDist {
						maxDist = dist[nb]
					}
					queue = append(queue, nb)
				}
			}
		}
	}
	return maxDist
}

// PageRank runs power-iteration PageRank with dangling-node redistribution.
func (a *Analytics) PageRank(damping float64, maxIter int, tol float64) map[string]float64 {
	agents := a.g.Agents()
	n := len(agents)
	if n == 0 {
		return map[string]float64{}
	}
	rank := make(map[string]float64, n)
	for _, ag := range agents {
		rank[ag] = 1.0 / float64(n)
	}
	for iter := 0; iter < maxIter; iter++ {
		newRank := make(map[string]float64, n)
		danglingSum := 0.0
		for _, ag := range agents {
			if a.g.OutDegree(ag) == 0 {
				danglingSum += rank[ag]
			}
		}
		for _, ag := range agents {
			s := 0.0
			for src := range a.g.InNeighbors(ag) {
				s += rank[src] / float64(a.g.OutDegree(src))
			}
			newRank[ag] = (1-damping)/float64(n) + damping*(s+danglingSum/float64(n))
		}
		diff := 0.0
		for _, ag := range agents {
			diff += math.Abs(newRank[ag] - rank[ag])
		}
		rank = newRank
		if diff < tol {
			break
		}
	}
	return rank
}

// BetweennessCentrality runs Brandes' algorithm, normalized for n >= 3.
func (a *Analytics) BetweennessCentrality() map[string]float64 {
	agents := a.g.Agents()
	cb := make(map[string]float64, len(agents))
	for _, ag := range agents {
		cb[ag] = 0
	}

	for _, s := range agents {
		var stack []string
		pred := make(map[string][]string, len(agents))
		sigma := make(map[string]int, len(agents))
		dist := make(map[string]int, len(agents))
		for _, ag := range agents {
			sigma[ag] = 0
			dist[ag] = -1
		}
		sigma[s] = 1
		dist[s] = 0
		queue := []string{s}

		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			for _, w := range sortedOutNeighborKeys(a.g.OutNeighbors(v)) {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					pred[w] = append(pred[w], v)
				}
			}
		}

		delta := make(map[string]float64, len(agents))
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range pred[w] {
				if sigma[w] != 0 {
					delta[v] += (float64(sigma[v]) / float64(sigma[w])) * (1 + delta[w])
				}
			}
			if w != s {
				cb[w] += delta[w]
			}
		}
	}

	n := len(agents)
	if n > 2 {
		norm := 1.0 / float64((n-1)*(n-2))
		for k := range cb {
			cb[k] *= norm
		}
	}
	return cb
}

// ClusteringCoefficient is the local (directed) clustering coefficient.
func (a *Analytics) ClusteringCoefficient(agent string) float64 {
	neighborSet := make(map[string]bool)
	for nb := range a.g.OutNeighbors(agent) {
		neighborSet[nb] = true
	}
	for nb := range a.g.InNeighbors(agent) {
		neighborSet[nb] = true
	}
	delete(neighborSet, agent)
	k := len(neighborSet)
	if k < 2 {
		return 0
	}
	links := 0
	for u := range neighborSet {
		for v := range neighborSet {
			if u != v && a.g.HasEdge(u, v) {
				links++
			}
		}
	}
	return float64(links) / float64(k*(k-1))
}

func (a *Analytics) AvgClustering() float64 {
	agents := a.g.Agents()
	if len(agents) == 0 {
		return 0
	}
	sum := 0.0
	for _, ag := range agents {
		sum += a.ClusteringCoefficient(ag)
	}
	return sum / float64(len(agents))
}

// LabelPropagation returns deterministic community labels, densely
// renumbered from 0.
func (a *Analytics) LabelPropagation(maxIter int) map[string]int {
	adj := a.g.ToUndirected()
	agents := a.g.Agents() // sorted
	labels := make(map[string]int, len(agents))
	for i, ag := range agents {
		labels[ag] = i
	}

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for _, agent := range agents {
			neighbors := adj[agent]
			if len(neighbors) == 0 {
				continue
			}
			labelCounts := make(map[int]int)
			for nb := range neighbors {
				labelCounts[labels[nb]]++
			}
			maxCount := 0
			for _, c := range labelCounts {
				if c > maxCount {
					maxCount = c
				}
			}
			best := math.MaxInt
			for l, c := range labelCounts {
				if c == maxCount && l < best {
					best = l
				}
			}
			if labels[agent] != best {
				labels[agent] = best
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	uniqueSet := make(map[int]bool)
	for _, l := range labels {
		uniqueSet[l] = true
	}
	unique := make([]int, 0, len(uniqueSet))
	for l := range uniqueSet {
		unique = append(unique, l)
	}
	sort.Ints(unique)
	remap := make(map[int]int, len(unique))
	for i, l := range unique {
		remap[l] = i
	}
	out := make(map[string]int, len(labels))
	for ag, l := range labels {
		out[ag] = remap[l]
	}
	return out
}

func (a *Analytics) Communities() [][]string {
	labels := a.LabelPropagation(50)
	groups := make(map[int][]string)
	for agent, label := range labels {
		groups[label] = append(groups[label], agent)
	}
	out := make([][]string, 0, len(groups))
	for _, g := range groups {
		sort.Strings(g)
		out = append(out, g)
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

// SybilScores implements the five-signal heuristic from spec §4.5(e),
// capped at 1.0.
func (a *Analytics) SybilScores(seedAgents map[string]bool) map[string]float64 {
	agents := a.g.Agents()
	scores := make(map[string]float64, len(agents))
	if len(agents) == 0 {
		return scores
	}
	pr := a.PageRank(DefaultDamping, DefaultMaxIter, DefaultTol)
	maxPR := 0.0
	for _, v := range pr {
		if v > maxPR {
			maxPR = v
		}
	}

	for _, agent := range agents {
		var signals []float64
		inDeg := a.g.InDegree(agent)
		outDeg := a.g.OutDegree(agent)
		totalDeg := inDeg + outDeg

		if totalDeg > 0 {
			imbalance := math.Abs(float64(outDeg-inDeg)) / float64(totalDeg)
			signals = append(signals, imbalance*0.3)
		}

		cc := a.ClusteringCoefficient(agent)
		if totalDeg >= 4 && cc < 0.1 {
			signals = append(signals, 0.3)
		} else if totalDeg >= 2 && cc < 0.05 {
			signals = append(signals, 0.2)
		}

		if totalDeg > 2 && maxPR > 0 {
			if pr[agent]/maxPR < 0.01 {
				signals = append(signals, 0.2)
			}
		}

		if len(seedAgents) > 0 {
			attestedBySeed := false
			for src := range a.g.InNeighbors(agent) {
				if seedAgents[src] {
					attestedBySeed = true
					break
				}
			}
			if !attestedBySeed {
				signals = append(signals, 0.3)
			}
		}

		inNeighbors := a.g.InNeighbors(agent)
		if len(inNeighbors) == 1 && inDeg > 3 {
			signals = append(signals, 0.4)
		}

		sum := 0.0
		for _, s := range signals {
			sum += s
		}
		if sum > 1.0 {
			sum = 1.0
		}
		scores[agent] = sum
	}
	return scores
}

// ArticulationPoints finds nodes whose removal increases the number of
// weakly connected components, via iterative DFS (spec §9: recursion must
// be converted for large graphs).
func (a *Analytics) ArticulationPoints() map[string]bool {
	adj := a.g.ToUndirected()
	visited := make(map[string]bool)
	disc := make(map[string]int)
	low := make(map[string]int)
	parent := make(map[string]string)
	hasParent := make(map[string]bool)
	ap := make(map[string]bool)
	timer := 0

	type frame struct {
		node      string
		neighbors []string
		i         int
		children  int
	}

	for _, start := range a.g.Agents() {
		if visited[start] {
			continue
		}
		visited[start] = true
		disc[start] = timer
		low[start] = timer
		timer++
		stack := []*frame{{node: start, neighbors: sortedUndirectedKeys(adj[start])}}

		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.i < len(top.neighbors) {
				v := top.neighbors[top.i]
				top.i++
				if !visited[v] {
					top.children++
					parent[v] = top.node
					hasParent[v] = true
					visited[v] = true
					disc[v] = timer
					low[v] = timer
					timer++
					stack = append(stack, &frame{node: v, neighbors: sortedUndirectedKeys(adj[v])})
				} else if !(hasParent[top.node] && v == parent[top.node]) {
					if disc[v] < low[top.node] {
						low[top.node] = disc[v]
					}
				}
			} else {
				stack = stack[:len(stack)-1]
				if len(stack) > 0 {
					par := stack[len(stack)-1]
					if low[top.node] < low[par.node] {
						low[par.node] = low[top.node]
					}
					if !hasParent[par.node] && par.children > 1 {
						ap[par.node] = true
					}
					if hasParent[par.node] && low[top.node] >= disc[par.node] {
						ap[par.node] = true
					}
				}
			}
		}
	}
	return ap
}

// AgentMetrics bundles per-agent analytics (spec §4.5 + original_source
// agent_metrics).
type AgentMetrics struct {
	AgentID          string
	InDegree         int
	OutDegree        int
	Betweenness      float64
	PageRank         float64
	ClusteringCoeff  float64
	Community        int
	IsBridge         bool
	SybilScore       float64
	Reciprocity      float64
	AvgTrustGiven    float64
	AvgTrustReceived float64
}

func (a *Analytics) AgentMetricsFor(agent string, seedAgents map[string]bool) AgentMetrics {
	pr := a.PageRank(DefaultDamping, DefaultMaxIter, DefaultTol)
	bc := a.BetweennessCentrality()
	sybil := a.SybilScores(seedAgents)
	communities := a.LabelPropagation(50)
	bridges := a.ArticulationPoints()

	out := a.g.OutNeighbors(agent)
	in := a.g.InNeighbors(agent)

	mutual := 0
	for dst := range out {
		if a.g.HasEdge(dst, agent) {
			mutual++
		}
	}
	connected := make(map[string]bool)
	for dst := range out {
		connected[dst] = true
	}
	for src := range in {
		connected[src] = true
	}
	recip := 0.0
	if len(connected) > 0 {
		recip = float64(mutual) / float64(len(connected))
	}

	avgGiven := 0.0
	if len(out) > 0 {
		sum := 0.0
		for _, w := range out {
			sum += w
		}
		avgGiven = sum / float64(len(out))
	}
	avgReceived := 0.0
	if len(in) > 0 {
		sum := 0.0
		for _, w := range in {
			sum += w
		}
		avgReceived = sum / float64(len(in))
	}

	return AgentMetrics{
		AgentID:          agent,
		InDegree:         a.g.InDegree(agent),
		OutDegree:        a.g.OutDegree(agent),
		Betweenness:      bc[agent],
		PageRank:         pr[agent],
		ClusteringCoeff:  a.ClusteringCoefficient(agent),
		Community:        communities[agent],
		IsBridge:         bridges[agent],
		SybilScore:       sybil[agent],
		Reciprocity:      recip,
		AvgTrustGiven:    avgGiven,
		AvgTrustReceived: avgReceived,
	}
}

// NetworkStats bundles aggregate network statistics (spec §4.5 + original
// network_stats).
type NetworkStats struct {
	NumAgents             int
	NumEdges              int
	Density               float64
	AvgDegree             float64
	NumComponents         int
	LargestComponentSize  int
	NumCommunities        int
	AvgClustering         float64
	Diameter              int
	Reciprocity           float64
}

func (a *Analytics) NetworkStats() NetworkStats {
	n := a.g.NumAgents()
	e := a.g.NumEdges()
	components := a.ConnectedComponents()
	comms := a.Communities()

	avgDegree := 0.0
	if n > 0 {
		avgDegree = float64(e) / float64(n)
	}
	largest := 0
	if len(components) > 0 {
		largest = len(components[0])
	}

	return NetworkStats{
		NumAgents:            n,
		NumEdges:             e,
		Density:              a.Density(),
		AvgDegree:            avgDegree,
		NumComponents:        len(components),
		LargestComponentSize: largest,
		NumCommunities:       len(comms),
		AvgClustering:        a.AvgClustering(),
		Diameter:             a.Diameter(),
		Reciprocity:          a.Reciprocity(),
	}
}
