/*
Package ports defines the driven ports (interfaces) for circuitry.

These interfaces decouple the workspace and adapters from concrete storage,
allowing circuits to be persisted in memory, on disk or in Redis, and custom
components to be read from a document library.

# Key Interfaces

  - DocumentStore: persists circuit documents under a key (workspaces, library entries).
  - DocumentSource: read-only access to named documents (e.g. a Loam vault).
  - DistributedLocker: distributed locking for concurrent workspace access.
*/
package ports
