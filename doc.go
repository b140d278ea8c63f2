/*
Package canvasflow is an execution engine for node-based visual workflows.

A workflow is a directed acyclic graph of typed nodes. Each node type declares
typed input and output ports in a registry; connections join an output port of
one node to an input port of another and are only accepted when the port types
are compatible. The engine orders the graph with Kahn's algorithm, runs every
node whose dependencies are satisfied concurrently, and tracks per-node status
for observers.

# Concept

The engine separates three concerns:

  - The catalog (pkg/registry) declares node types, their ports and defaults.
  - The validator (pkg/validator) decides which connections are allowed.
  - The executor (pkg/executor) runs a graph in dependency order with
    pause, resume and stop, under a manual or automatic failure policy.

The host supplies the work each node performs as a handler. Handlers can be Go
functions or external processes described in a YAML file.

# Usage

	eng := canvasflow.New()
	eng.Handle(registry.TypeImageGenerator, func(ctx context.Context, n domain.NodeInstance, in map[string]any) (any, error) {
		return map[string]any{"image": render(in["prompt"])}, nil
	})

	b := eng.Builder()
	b.Add("prompt", registry.TypeTextPrompt).Set("text", "a cabin")
	b.Add("render", registry.TypeImageGenerator).From("prompt", "text", "prompt")
	g, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	state, err := eng.Run(ctx, g)

Failed nodes never abort an automatic run: their dependents are skipped and
the rest of the graph continues. A manual run stops at the first failure.
*/
package canvasflow
