package rules

import (
	"container/heap"
	"sort"
	"strconv"
	"strings"

	auditerrors "docaudit/internal/errors"
)

// Graph is the prerequisite graph over rule IDs. An edge runs from a
// prerequisite to each rule that depends on it.
type Graph struct {
	ids        []int
	deps       map[int][]int
	dependents map[int][]int
}

// NewGraph builds the graph from rules' depends_on lists. A dependency on an
// ID that is not in rules is an error.
func NewGraph(rules []*Rule) (*Graph, error) {
	g := &Graph{
		deps:       make(map[int][]int, len(rules)),
		dependents: make(map[int][]int, len(rules)),
	}
	known := make(map[int]struct{}, len(rules))
	for _, r := range rules {
		known[r.ID] = struct{}{}
		g.ids = append(g.ids, r.ID)
	}
	sort.Ints(g.ids)

	for _, r := range rules {
		for _, dep := range r.DependsOn {
			if _, ok := known[dep]; !ok {
				return nil, auditerrors.Newf(auditerrors.UnknownDependency,
					"rule %d depends on unknown rule %d", r.ID, dep).WithDetails(map[string]int{"rule": r.ID, "dependsOn": dep})
			}
			g.deps[r.ID] = append(g.deps[r.ID], dep)
			g.dependents[dep] = append(g.dependents[dep], r.ID)
		}
	}
	for id := range g.dependents {
		sort.Ints(g.dependents[id])
	}
	return g, nil
}

// Dependencies returns the direct prerequisites of id in ascending order.
func (g *Graph) Dependencies(id int) []int {
	return g.deps[id]
}

// Dependents returns the rules that directly depend on id in ascending order.
func (g *Graph) Dependents(id int) []int {
	return g.dependents[id]
}

// Edges returns every (prerequisite, dependent) pair ordered by prerequisite.
func (g *Graph) Edges() [][2]int {
	var edges [][2]int
	for _, id := range g.ids {
		for _, child := range g.dependents[id] {
			edges = append(edges, [2]int{id, child})
		}
	}
	return edges
}

// Sort returns a topological order using Kahn's algorithm, always releasing the
// smallest ready ID first. A cycle yields a DependencyCycle error whose details
// list the IDs on the cycle.
func (g *Graph) Sort() ([]int, error) {
	indegree := make(map[int]int, len(g.ids))
	ready := &intHeap{}
	for _, id := range g.ids {
		indegree[id] = len(g.deps[id])
		if indegree[id] == 0 {
			heap.Push(ready, id)
		}
	}

	order := make([]int, 0, len(g.ids))
	for ready.Len() > 0 {
		id := heap.Pop(ready).(int)
		order = append(order, id)
		for _, child := range g.dependents[id] {
			indegree[child]--
			if indegree[child] == 0 {
				heap.Push(ready, child)
			}
		}
	}

	if len(order) == len(g.ids) {
		return order, nil
	}

	cycle := g.findCycle(indegree)
	parts := make([]string, len(cycle))
	for i, id := range cycle {
		parts[i] = strconv.Itoa(id)
	}
	return nil, auditerrors.Newf(auditerrors.DependencyCycle,
		"dependency cycle: %s", strings.Join(parts, " -> ")).WithDetails(cycle[:len(cycle)-1])
}

// findCycle walks depends_on edges among the rules Kahn's algorithm could not
// release. Each such rule still has an unreleased prerequisite, so the walk
// must revisit a node; the path from that node's first visit is a cycle. The
// returned path starts and ends on the same ID.
func (g *Graph) findCycle(indegree map[int]int) []int {
	stuck := func(id int) bool { return indegree[id] > 0 }

	start := -1
	for _, id := range g.ids {
		if stuck(id) {
			start = id
			break
		}
	}

	visited := map[int]int{}
	var path []int
	for id := start; ; {
		if at, seen := visited[id]; seen {
			return append(path[at:], id)
		}
		visited[id] = len(path)
		path = append(path, id)

		next := -1
		for _, dep := range sortedCopy(g.deps[id]) {
			if stuck(dep) {
				next = dep
				break
			}
		}
		id = next
	}
}

func sortedCopy(ids []int) []int {
	out := append([]int(nil), ids...)
	sort.Ints(out)
	return out
}

type intHeap []int

func (h intHeap) Len() int            { return len(h) }
func (h intHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h intHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *intHeap) Push(x interface{}) { *h = append(*h, x.(int)) }
func (h *intHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
