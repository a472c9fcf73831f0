package types

// Generic helpers for ordering nodes of a dependency graph

import (
	"container/heap"
	"sort"
	"strings"
)

// findCycles runs a depth-first search over adj, which maps a node to the
// nodes it depends on, and returns each cycle found as a path that starts and
// ends on the same node. Nodes are visited in sorted order so the reported
// cycles are stable.
func findCycles(adj map[string][]string) [][]string {
	const (
		colorWhite = 0 // unvisited
		colorGray  = 1 // visiting
		colorBlack = 2 // visited
	)
	color := make(map[string]int)
	stack := make([]string, 0, len(adj))
	var cycles [][]string

	var dfs func(u string) bool
	dfs = func(u string) bool {
		color[u] = colorGray
		stack = append(stack, u)
		for _, v := range adj[u] {
			if color[v] == colorGray {
				// cycle found: extract stack from first occurrence of v
				start := 0
				for i := range stack {
					if stack[i] == v {
						start = i
						break
					}
				}
				path := append(append([]string(nil), stack[start:]...), v)
				cycles = append(cycles, path)
				return true
			}
			if color[v] == colorWhite {
				if dfs(v) {
					return true
				}
			}
		}
		color[u] = colorBlack
		stack = stack[:len(stack)-1]
		return false
	}

	nodes := make([]string, 0, len(adj))
	for u := range adj {
		nodes = append(nodes, u)
	}
	sort.Strings(nodes)
	for _, u := range nodes {
		if color[u] == colorWhite {
			stack = stack[:0]
			if dfs(u) {
				// The search stopped at the cycle, leaving its path gray.
				for _, n := range stack {
					color[n] = colorBlack
				}
			}
		}
	}
	return cycles
}

// TopologicalOrder orders nodes so every node comes after the nodes it
// depends on. deps maps a node to its dependencies; dependencies that are not
// in nodes are ignored. Among the nodes that are ready at any step the one
// listed first in nodes wins, so the input order is kept wherever the graph
// allows it. A cycle yields an UnresolvableDependencyError naming it.
func TopologicalOrder(nodes []string, deps map[string][]string) ([]string, error) {
	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		index[n] = i
	}

	pending := make([]int, len(nodes))
	dependents := make([][]int, len(nodes))
	for i, n := range nodes {
		seen := map[int]bool{}
		for _, d := range deps[n] {
			j, ok := index[d]
			if !ok || j == i || seen[j] {
				continue
			}
			seen[j] = true
			pending[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	ready := &indexHeap{}
	for i := range nodes {
		if pending[i] == 0 {
			heap.Push(ready, i)
		}
	}

	order := make([]string, 0, len(nodes))
	for ready.Len() > 0 {
		i := heap.Pop(ready).(int)
		order = append(order, nodes[i])
		for _, j := range dependents[i] {
			pending[j]--
			if pending[j] == 0 {
				heap.Push(ready, j)
			}
		}
	}

	if len(order) == len(nodes) {
		return order, nil
	}

	// Restrict the graph to the unordered remainder to name the cycle.
	rest := make(map[string][]string)
	for i, n := range nodes {
		if pending[i] == 0 {
			continue
		}
		for _, d := range deps[n] {
			if j, ok := index[d]; ok && pending[j] > 0 {
				rest[n] = append(rest[n], d)
			}
		}
	}
	var details []string
	for _, path := range findCycles(rest) {
		details = append(details, strings.Join(path, " -> "))
	}
	return nil, NewUnresolvableDependencyError(details)
}

type indexHeap []int

func (h indexHeap) Len() int           { return len(h) }
func (h indexHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *indexHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *indexHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
