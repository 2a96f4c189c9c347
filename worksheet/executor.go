package worksheet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

var ErrExecutionHalted = errors.New("execution halted")

// Invoker calls a named operation with stringified arguments
type Invoker interface {
	Invoke(ctx context.Context, operation string, args []string) (string, error)
}

// Result is the outcome of one walk of the graph
type Result struct {
	OK     bool   `json:"ok"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
	NodeID string `json:"node_id,omitempty"`
}

// HaltError reports where a run stopped; it unwraps to ErrExecutionHalted
type HaltError struct {
	CaseIndex int
	NodeID    string
	Message   string
}

func (e *HaltError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("test case %d halted at node %s: %s", e.CaseIndex, e.NodeID, e.Message)
	}
	return fmt.Sprintf("test case %d halted: %s", e.CaseIndex, e.Message)
}

func (e *HaltError) Unwrap() error { return ErrExecutionHalted }

type Executor struct {
	invoker Invoker
}

func NewExecutor(invoker Invoker) *Executor {
	return &Executor{invoker: invoker}
}

// Stringify normalises an operation output so heterogeneous values can flow between nodes
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

type inbound struct {
	edge  Edge
	order int
}

// Run walks the graph in topological order starting from the input node.
// The first failing operation aborts the walk.
func (e *Executor) Run(ctx context.Context, g Graph, input string) Result {
	if err := Validate(g); err != nil {
		return Result{Error: err.Error()}
	}

	nodes := make(map[string]Node, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes[n.ID] = n
	}
	incoming := make(map[string][]inbound, len(g.Nodes))
	dependents := make(map[string][]string, len(g.Nodes))
	pending := make(map[string]int, len(g.Nodes))
	for i, edge := range g.Edges {
		incoming[edge.Target] = append(incoming[edge.Target], inbound{edge: edge, order: i})
		dependents[edge.Source] = append(dependents[edge.Source], edge.Target)
		pending[edge.Target]++
	}
	for id := range incoming {
		in := incoming[id]
		sort.SliceStable(in, func(a, b int) bool {
			if in[a].edge.TargetHandle != in[b].edge.TargetHandle {
				return in[a].edge.TargetHandle < in[b].edge.TargetHandle
			}
			return in[a].order < in[b].order
		})
	}

	start, _ := g.node(NodeInput)
	values := make(map[string]string, len(g.Nodes))
	queue := []string{start.ID}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return Result{Error: err.Error()}
		}
		id := queue[0]
		queue = queue[1:]
		node := nodes[id]

		args := make([]string, 0, len(incoming[id]))
		for _, in := range incoming[id] {
			args = append(args, values[in.edge.Source])
		}

		switch node.Type {
		case NodeInput:
			values[id] = input
		case NodeOutput:
			if len(args) == 0 {
				return Result{Error: "output node has no input", NodeID: id}
			}
			values[id] = args[0]
			return Result{OK: true, Output: values[id]}
		case NodeFunction:
			args = append(args, node.Data.Args...)
			out, err := e.invoker.Invoke(ctx, node.Data.Operation, args)
			if err != nil {
				return Result{Error: err.Error(), NodeID: id}
			}
			values[id] = out
		}

		for _, dep := range dependents[id] {
			pending[dep]--
			if pending[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	output, _ := g.node(NodeOutput)
	return Result{Error: "output is undefined", NodeID: output.ID}
}

// Case is one test case to evaluate a graph against
type Case struct {
	Input    string
	Expected string
}

type CaseResult struct {
	Index    int    `json:"index"`
	Input    string `json:"input"`
	Output   string `json:"output"`
	Expected string `json:"expected"`
	Passed   bool   `json:"passed"`
}

type Evaluation struct {
	Passed    int          `json:"passed"`
	Total     int          `json:"total"`
	AllPassed bool         `json:"all_passed"`
	Results   []CaseResult `json:"results"`
}

// Failed returns the failing cases in their original order
func (ev Evaluation) Failed() []CaseResult {
	var failed []CaseResult
	for _, r := range ev.Results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// Evaluate runs every case and compares outputs to expectations by exact string equality.
// A halted run stops the evaluation and returns a *HaltError.
func (e *Executor) Evaluate(ctx context.Context, g Graph, cases []Case) (Evaluation, error) {
	ev := Evaluation{Total: len(cases), Results: make([]CaseResult, 0, len(cases))}
	if err := Validate(g); err != nil {
		return ev, err
	}
	for i, tc := range cases {
		res := e.Run(ctx, g, tc.Input)
		if !res.OK {
			return ev, &HaltError{CaseIndex: i, NodeID: res.NodeID, Message: res.Error}
		}
		passed := res.Output == tc.Expected
		if passed {
			ev.Passed++
		}
		ev.Results = append(ev.Results, CaseResult{
			Index:    i,
			Input:    tc.Input,
			Output:   res.Output,
			Expected: tc.Expected,
			Passed:   passed,
		})
	}
	ev.AllPassed = ev.Total > 0 && ev.Passed == ev.Total
	return ev, nil
}
