/*
Package ports defines the driven ports (interfaces) around the automaton core.

These interfaces decouple session handling from storage and coordination backends.

# Key Interfaces

  - StateStore: persists automaton snapshots per session (memory, file, Redis).
  - DistributedLocker: serializes access to one session across replicas.
  - DefinitionLoader: retrieves the automaton definition a host runs.
*/
package ports
