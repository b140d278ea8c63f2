package executor

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"
)

type task struct {
	nodeID string
	input  map[string]any
}

type outcome struct {
	nodeID   string
	output   any
	err      error
	duration time.Duration
	finished time.Time
}

// assembleInputsLocked builds the input map of nodeID from the outputs of
// its upstream nodes. Each incoming edge contributes one entry keyed by its
// target handle; several edges into the same handle collect into a []any in
// edge order. When an upstream output is a map holding the edge's source
// port, only that port's value is passed on.
func (e *Executor) assembleInputsLocked(nodeID string) map[string]any {
	input := make(map[string]any)
	fanIn := make(map[string]bool)
	for _, edge := range e.edges {
		if edge.Target != nodeID {
			continue
		}
		result, ok := e.state.Results[edge.Source]
		if !ok {
			continue
		}
		key := edge.TargetHandle
		if key == "" {
			key = edge.Source
		}
		value := e.portValue(edge.Source, edge.SourceHandle, result.Output)
		prev, seen := input[key]
		switch {
		case !seen:
			input[key] = value
		case fanIn[key]:
			input[key] = append(prev.([]any), value)
		default:
			input[key] = []any{prev, value}
			fanIn[key] = true
		}
	}
	return input
}

func (e *Executor) portValue(sourceID, handle string, output any) any {
	m, ok := output.(map[string]any)
	if !ok {
		return output
	}
	portID := e.resolveSourcePort(sourceID, handle)
	if v, found := m[portID]; found && portID != "" {
		return v
	}
	return output
}

// resolveSourcePort returns handle, or the single output port of the source
// node type when the edge carries no handle.
func (e *Executor) resolveSourcePort(sourceID, handle string) string {
	if handle != "" || e.registry == nil {
		return handle
	}
	n, ok := e.nodes[sourceID]
	if !ok {
		return ""
	}
	def, ok := e.registry.Definition(n.Type)
	if !ok || len(def.Outputs) != 1 {
		return ""
	}
	return def.Outputs[0].ID
}

// dispatch runs every task of a batch concurrently and waits for all of them.
// Workers only send their outcome back; outcomes are returned in batch order.
func dispatch(ctx context.Context, batch []task, fn ExecuteFunc) []outcome {
	results := make(chan indexedOutcome, len(batch))
	var wg sync.WaitGroup
	for i, t := range batch {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- indexedOutcome{index: i, outcome: invoke(ctx, t, fn)}
		}()
	}
	wg.Wait()
	close(results)

	outcomes := make([]outcome, len(batch))
	for r := range results {
		outcomes[r.index] = r.outcome
	}
	return outcomes
}

type indexedOutcome struct {
	index int
	outcome
}

func invoke(ctx context.Context, t task, fn ExecuteFunc) (o outcome) {
	start := time.Now()
	o.nodeID = t.nodeID
	defer func() {
		if r := recover(); r != nil {
			o.err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
		o.finished = time.Now()
		o.duration = o.finished.Sub(start)
	}()
	o.output, o.err = fn(ctx, t.nodeID, t.input)
	return o
}
