// Package process runs node work as allow-listed external commands.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/canvasflow/pkg/domain"
)

// Payload is written as JSON to the command's stdin.
type Payload struct {
	NodeID string         `json:"node_id"`
	Type   string         `json:"type"`
	Data   map[string]any `json:"data"`
	Inputs map[string]any `json:"inputs"`
}

// Runner executes node handlers as local processes. Only commands registered
// for a node type can run.
type Runner struct {
	registry map[string]registeredProcess
	baseDir  string
}

type registeredProcess struct {
	command string
	args    []string
	env     map[string]string
	timeout time.Duration
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithHandlers populates the allow-list from a loaded config.
func WithHandlers(handlers map[string]HandlerConfig) RunnerOption {
	return func(r *Runner) {
		for typeKey, h := range handlers {
			timeout, _ := h.TimeoutDuration()
			r.registry[typeKey] = registeredProcess{
				command: h.Command,
				args:    h.Args,
				env:     h.Environment,
				timeout: timeout,
			}
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// NewRunner creates a process runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]registeredProcess),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register allow-lists a command for a node type.
func (r *Runner) Register(typeKey, command string, args ...string) {
	r.registry[typeKey] = registeredProcess{command: command, args: args}
}

// Types returns the node types with a registered command.
func (r *Runner) Types() []string {
	return slices.Sorted(maps.Keys(r.registry))
}

// Execute runs the command registered for node.Type. The node and its inputs
// are sent on stdin; stdout is decoded as JSON when it looks like JSON and
// returned as trimmed text otherwise.
func (r *Runner) Execute(ctx context.Context, node domain.NodeInstance, inputs map[string]any) (any, error) {
	proc, ok := r.registry[node.Type]
	if !ok {
		return nil, fmt.Errorf("%w: no process registered for %s", domain.ErrNoHandler, node.Type)
	}

	stdin, err := json.Marshal(Payload{NodeID: node.ID, Type: node.Type, Data: node.Data, Inputs: inputs})
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload for node %s: %w", node.ID, err)
	}

	if proc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, proc.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, proc.command, proc.args...)
	cmd.Dir = r.baseDir
	cmd.WaitDelay = time.Second
	cmd.Env = append(cmd.Environ(),
		"CANVASFLOW_NODE_ID="+node.ID,
		"CANVASFLOW_NODE_TYPE="+node.Type,
	)
	for k, v := range proc.env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Stdin = bytes.NewReader(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, fmt.Errorf("node %s: process timed out after %s: %w", node.ID, proc.timeout, ctxErr)
		}
		return nil, fmt.Errorf("node %s: execution failed: %w (stderr: %s)", node.ID, err, strings.TrimSpace(stderr.String()))
	}

	return decodeOutput(stdout.Bytes()), nil
}

func decodeOutput(out []byte) any {
	trimmed := strings.TrimSpace(string(out))
	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	}
	return trimmed
}
