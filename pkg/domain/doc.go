/*
Package domain holds the shared vocabulary of the canvasflow engine.

It defines port types and their compatibility matrix, node type definitions and
instances, connections, the graph description consumed from the canvas editor,
and the execution and node status records produced while a workflow runs.

The package has no dependencies on the rest of the module: the registry,
validator, executor and status tracker all speak in these types.
*/
package domain
