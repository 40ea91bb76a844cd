package datastructure

import (
	"sort"

	"lintang/routex/pkg/util"
)

// StronglyConnectedComponents runs Kosaraju over the node level graph, turn
// restrictions are not taken into account. Components are ordered by size,
// largest first, and every component lists its node ids ascending.
func (g *Graph) StronglyConnectedComponents() [][]NodeID {
	n := len(g.nodes)

	order := make([]int, 0, n)
	visited := make([]bool, n)
	for i := 0; i < n; i++ {
		if !visited[i] {
			g.dfsPostorder(i, visited, &order, g.outNeighbors)
		}
	}
	order = util.ReverseG(order)

	inAdj := make([][]int, n)
	for _, e := range g.edges {
		from, to := g.nodeIdx[e.From], g.nodeIdx[e.To]
		inAdj[to] = append(inAdj[to], int(from))
	}
	inNeighbors := func(v int) []int {
		return inAdj[v]
	}

	visited = make([]bool, n)
	components := make([][]NodeID, 0)
	for _, v := range order {
		if visited[v] {
			continue
		}
		members := make([]int, 0)
		g.dfsPostorder(v, visited, &members, inNeighbors)

		// nodes are sorted by id, so sorted indices give sorted ids
		sort.Ints(members)
		component := make([]NodeID, len(members))
		for i, idx := range members {
			component[i] = g.nodes[idx].ID
		}
		components = append(components, component)
	}

	sort.SliceStable(components, func(i, j int) bool {
		if len(components[i]) != len(components[j]) {
			return len(components[i]) > len(components[j])
		}
		return components[i][0] < components[j][0]
	})
	return components
}

func (g *Graph) outNeighbors(v int) []int {
	out := make([]int, 0, g.firstOut[v+1]-g.firstOut[v])
	for _, e := range g.edges[g.firstOut[v]:g.firstOut[v+1]] {
		out = append(out, int(g.nodeIdx[e.To]))
	}
	return out
}

// dfsPostorder is an iterative dfs, road graphs have chains far deeper than
// a comfortable recursion depth.
func (g *Graph) dfsPostorder(start int, visited []bool, output *[]int, neighbors func(int) []int) {
	type frame struct {
		v    int
		next []int
	}
	visited[start] = true
	stack := []frame{{v: start, next: neighbors(start)}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if len(top.next) == 0 {
			*output = append(*output, top.v)
			stack = stack[:len(stack)-1]
			continue
		}
		w := top.next[0]
		top.next = top.next[1:]
		if !visited[w] {
			visited[w] = true
			stack = append(stack, frame{v: w, next: neighbors(w)})
		}
	}
}
