/*
Package runner orchestrates workflow runs on top of the executor.

It validates a graph, takes the workflow lock, drives the executor with the
registered node handlers, mirrors node transitions into a status table and
persists execution state snapshots.

# Key Components

  - Handlers: maps node types to HandlerFunc implementations, with middleware.
  - Runner: starts, tracks and controls runs (pause, resume, stop).

# Usage

	handlers := runner.NewHandlers()
	handlers.Register("image_generator", renderImage)

	r := runner.New(registry.Default(), handlers,
		runner.WithStore(redis.NewFromClient(client)),
		runner.WithLocker(redis.NewLocker(client, "canvasflow:")),
	)

	state, err := r.Run(ctx, runner.Request{Graph: graph, Key: "facade-study"})
*/
package runner
