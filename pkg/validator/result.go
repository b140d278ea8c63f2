package validator

import (
	"fmt"
	"strings"
)

// Code classifies why a connection was rejected.
type Code string

const (
	CodeMissingParameters Code = "missing_parameters"
	CodeSelfConnection    Code = "self_connection"
	CodeNodeNotFound      Code = "node_not_found"
	CodeInvalidNodeType   Code = "invalid_node_type"
	CodePortNotFound      Code = "port_not_found"
	CodeTypeMismatch      Code = "type_mismatch"
)

// Result is the outcome of validating a single connection. Rejections are
// reported here rather than as Go errors so callers can react per edge.
type Result struct {
	Valid   bool   `json:"valid"`
	Code    Code   `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
	Warning string `json:"warning,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

func invalid(code Code, msg string) Result {
	return Result{Code: code, Error: msg}
}

// EdgeResult pairs an edge id with its validation result.
type EdgeResult struct {
	EdgeID string `json:"edge_id"`
	Result Result `json:"result"`
}

// GraphError aggregates every rejected edge of a graph.
type GraphError struct {
	Invalid []EdgeResult
}

func (e *GraphError) Error() string {
	parts := make([]string, len(e.Invalid))
	for i, r := range e.Invalid {
		parts[i] = fmt.Sprintf("edge %s: %s", r.EdgeID, r.Result.Error)
	}
	return fmt.Sprintf("found %d invalid connections:\n- %s", len(e.Invalid), strings.Join(parts, "\n- "))
}

// Errors returns a *GraphError if any result is invalid, nil otherwise.
func Errors(results []EdgeResult) error {
	var bad []EdgeResult
	for _, r := range results {
		if !r.Result.Valid {
			bad = append(bad, r)
		}
	}
	if len(bad) == 0 {
		return nil
	}
	return &GraphError{Invalid: bad}
}
