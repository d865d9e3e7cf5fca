package core

import (
	"sort"
	"strings"

	"component-manager/internal/shared"
	"component-manager/internal/types"
)

const (
	nodeUnvisited = iota
	nodeVisiting
	nodeDone
)

// checkCycles walks the declared-dependency graph of the project
// manifests and the solved components and fails on the first cycle.
func checkCycles(tree types.ManifestTree, roots []edge, run *solveRun) error {
	graph := map[string][]string{}
	for _, root := range roots {
		graph[root.requirer] = appendUnique(graph[root.requirer], root.name)
	}
	for _, name := range run.order {
		for _, dep := range run.table[name].deps {
			graph[name] = appendUnique(graph[name], dep)
		}
	}
	for _, manifest := range tree.Manifests {
		label := manifestLabel(manifest)
		if _, ok := graph[label]; !ok {
			graph[label] = nil
		}
	}
	return findCycle(graph)
}

func findCycle(graph map[string][]string) error {
	state := map[string]int{}
	var path []string

	var visit func(node string) error
	visit = func(node string) error {
		state[node] = nodeVisiting
		path = append(path, node)
		for _, dep := range graph[node] {
			switch state[dep] {
			case nodeVisiting:
				return cycleError(path, dep)
			case nodeUnvisited:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		state[node] = nodeDone
		path = path[:len(path)-1]
		return nil
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)
	for _, node := range nodes {
		if state[node] != nodeUnvisited {
			continue
		}
		if err := visit(node); err != nil {
			return err
		}
	}
	return nil
}

func cycleError(path []string, dep string) error {
	start := 0
	for i, node := range path {
		if node == dep {
			start = i
			break
		}
	}
	cycle := append(append([]string(nil), path[start:]...), dep)
	return shared.ConflictError(shared.PrefixCycle, "%s", strings.Join(cycle, " -> "))
}

func appendUnique(values []string, value string) []string {
	for _, existing := range values {
		if existing == value {
			return values
		}
	}
	return append(values, value)
}
