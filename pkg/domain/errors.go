package domain

import "errors"

// ErrUnknownNodeType is returned when a type key is not in the registry.
var ErrUnknownNodeType = errors.New("unknown node type")

// ErrCycleOrDisconnectedGraph is returned when a topological order cannot
// cover every node: the graph has a cycle or references nodes outside the set.
var ErrCycleOrDisconnectedGraph = errors.New("graph contains a cycle or references unknown nodes")

// ErrDeadlock is returned when a run stalls with unaccounted nodes.
var ErrDeadlock = errors.New("execution deadlock: no ready nodes but workflow incomplete")

// ErrNodeExecution marks a failure raised by a node's execute callback.
var ErrNodeExecution = errors.New("node execution failed")

// ErrRunStopped is returned by a run that was stopped before it finished.
var ErrRunStopped = errors.New("run stopped")

// ErrAlreadyRunning is returned when starting an executor that is mid-run.
var ErrAlreadyRunning = errors.New("execution already in progress")

// ErrRunNotFound is returned when a run ID cannot be found.
var ErrRunNotFound = errors.New("run not found")

// ErrNoHandler is returned when no handler is registered for a node type.
var ErrNoHandler = errors.New("no handler registered for node type")
