package worksheet

import (
	"errors"
	"fmt"
)

const (
	NodeInput    = "input"
	NodeFunction = "function"
	NodeOutput   = "output"
)

var ErrInvalidGraph = errors.New("invalid worksheet")

// Graph is the node/edge document authored on the canvas
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

type Node struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Data     NodeData  `json:"data"`
	Position *Position `json:"position,omitempty"`
}

type NodeData struct {
	Operation string   `json:"operation,omitempty"`
	Label     string   `json:"label,omitempty"`
	// Args are literal arguments appended after the values received on edges
	Args []string `json:"args,omitempty"`
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidGraph, fmt.Sprintf(format, args...))
}

// Validate checks the structural rules a graph must satisfy before it runs:
// one input node, one output node, named operations, known edge endpoints, no cycles.
func Validate(g Graph) error {
	nodes := make(map[string]Node, len(g.Nodes))
	var inputs, outputs int
	for _, n := range g.Nodes {
		if n.ID == "" {
			return invalid("node without id")
		}
		if _, dup := nodes[n.ID]; dup {
			return invalid("duplicate node id %q", n.ID)
		}
		nodes[n.ID] = n

		switch n.Type {
		case NodeInput:
			inputs++
		case NodeOutput:
			outputs++
		case NodeFunction:
			if n.Data.Operation == "" {
				return invalid("function node %q has no operation", n.ID)
			}
		default:
			return invalid("node %q has unknown type %q", n.ID, n.Type)
		}
	}
	if inputs != 1 {
		return invalid("expected exactly one input node, found %d", inputs)
	}
	if outputs != 1 {
		return invalid("expected exactly one output node, found %d", outputs)
	}

	var outputEdges int
	for _, e := range g.Edges {
		if _, ok := nodes[e.Source]; !ok {
			return invalid("edge %q references unknown source %q", e.ID, e.Source)
		}
		if _, ok := nodes[e.Target]; !ok {
			return invalid("edge %q references unknown target %q", e.ID, e.Target)
		}
		if e.Source == e.Target {
			return invalid("edge %q loops on node %q", e.ID, e.Source)
		}
		if nodes[e.Target].Type == NodeInput {
			return invalid("edge %q points into the input node", e.ID)
		}
		if nodes[e.Source].Type == NodeOutput {
			return invalid("edge %q leaves the output node", e.ID)
		}
		if nodes[e.Target].Type == NodeOutput {
			outputEdges++
		}
	}
	if outputEdges > 1 {
		return invalid("output node accepts a single input, found %d", outputEdges)
	}

	if hasCycle(g) {
		return invalid("graph contains a cycle")
	}
	return nil
}

// hasCycle runs Kahn's algorithm over the whole graph
func hasCycle(g Graph) bool {
	indegree := make(map[string]int, len(g.Nodes))
	next := make(map[string][]string, len(g.Nodes))
	for _, n := range g.Nodes {
		indegree[n.ID] = 0
	}
	for _, e := range g.Edges {
		indegree[e.Target]++
		next[e.Source] = append(next[e.Source], e.Target)
	}

	queue := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if indegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}
	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, t := range next[id] {
			indegree[t]--
			if indegree[t] == 0 {
				queue = append(queue, t)
			}
		}
	}
	return visited != len(g.Nodes)
}

func (g Graph) node(kind string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.Type == kind {
			return n, true
		}
	}
	return Node{}, false
}
