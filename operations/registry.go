package operations

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"codewhisperer/metrics"
	"codewhisperer/worksheet"
)

// ID identifies an operation exposed to worksheets
type ID string

const (
	FN1   ID = "fn1"
	FN2   ID = "fn2"
	FN3   ID = "fn3"
	FN4   ID = "fn4"
	FN5   ID = "fn5"
	FN6   ID = "fn6"
	FN7   ID = "fn7"
	FN8   ID = "fn8"
	FN9   ID = "fn9"
	FN10  ID = "fn10"
	FN11  ID = "fn11"
	FN12  ID = "fn12"
	FN13  ID = "fn13"
	FN14  ID = "fn14"
	FN15  ID = "fn15"
	FN16  ID = "fn16"
	FN17  ID = "fn17"
	FN18  ID = "fn18"
	FN19  ID = "fn19"
	FN20  ID = "fn20"
	FN21  ID = "fn21"
	FN22  ID = "fn22"
	Q00XS ID = "Q00XS"
)

var (
	ErrUnknownOperation = errors.New("unknown operation")
	ErrArity            = errors.New("wrong number of inputs")
	ErrInputType        = errors.New("invalid input")
)

// Handler computes an operation result from stringified inputs
type Handler func(args []string) (any, error)

// Operation describes one entry of the function library
type Operation struct {
	ID          ID      `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	MinArgs     int     `json:"min_args"`
	MaxArgs     int     `json:"max_args"` // -1 for unbounded
	Handler     Handler `json:"-"`
}

// CallResult is the envelope returned by the function procedures
type CallResult struct {
	Success bool   `json:"success"`
	Result  string `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Registry struct {
	ops map[ID]Operation
}

// NewRegistry returns a registry holding the standard function library
func NewRegistry() *Registry {
	r := &Registry{ops: make(map[ID]Operation)}
	for _, op := range library() {
		r.Register(op)
	}
	return r
}

func (r *Registry) Register(op Operation) {
	r.ops[op.ID] = op
}

func (r *Registry) Lookup(id string) (Operation, bool) {
	op, ok := r.ops[ID(id)]
	return op, ok
}

// List returns the operations ordered fn1..fn22 then the question helpers
func (r *Registry) List() []Operation {
	list := make([]Operation, 0, len(r.ops))
	for _, op := range r.ops {
		list = append(list, op)
	}
	sort.Slice(list, func(i, j int) bool {
		a, aok := fnIndex(list[i].ID)
		b, bok := fnIndex(list[j].ID)
		if aok && bok {
			return a < b
		}
		if aok != bok {
			return aok
		}
		return list[i].ID < list[j].ID
	})
	return list
}

func fnIndex(id ID) (int, bool) {
	s := string(id)
	if !strings.HasPrefix(s, "fn") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(s, "fn"))
	return n, err == nil
}

// Call runs an operation and never panics; failures come back as {success:false}
func (r *Registry) Call(id string, args []string) CallResult {
	out, err := r.call(id, args)
	if err != nil {
		metrics.OperationCalls.WithLabelValues(id, "error").Inc()
		return CallResult{Success: false, Error: err.Error()}
	}
	metrics.OperationCalls.WithLabelValues(id, "success").Inc()
	return CallResult{Success: true, Result: out}
}

// Invoke implements worksheet.Invoker
func (r *Registry) Invoke(ctx context.Context, operation string, args []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	res := r.Call(operation, args)
	if !res.Success {
		return "", fmt.Errorf("%s: %s", operation, res.Error)
	}
	return res.Result, nil
}

func (r *Registry) call(id string, args []string) (out string, err error) {
	op, ok := r.Lookup(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownOperation, id)
	}
	if len(args) < op.MinArgs || (op.MaxArgs >= 0 && len(args) > op.MaxArgs) {
		return "", fmt.Errorf("%w: %s expects %s, got %d", ErrArity, op.Name, arity(op), len(args))
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%s failed: %v", op.Name, rec)
		}
	}()

	v, err := op.Handler(args)
	if err != nil {
		return "", err
	}
	return worksheet.Stringify(v), nil
}

func arity(op Operation) string {
	switch {
	case op.MaxArgs < 0:
		return fmt.Sprintf("at least %d input(s)", op.MinArgs)
	case op.MinArgs == op.MaxArgs:
		return fmt.Sprintf("%d input(s)", op.MinArgs)
	default:
		return fmt.Sprintf("%d to %d inputs", op.MinArgs, op.MaxArgs)
	}
}
