/*
Package ports defines the driven ports (interfaces) of the workflow engine.

These interfaces decouple run orchestration from storage and coordination
backends.

# Key Interfaces

  - RunStore: persists ExecutionState snapshots by run id (memory, file, redis).
  - DistributedLocker: serializes runs of the same graph across replicas.
*/
package ports
