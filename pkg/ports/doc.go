// Package ports defines the interfaces between the tutoring core and its
// adapters: model providers, resource retrievers, session stores, artifact
// caches, progress notifiers and distributed lockers.
//
// The core depends only on these interfaces; concrete implementations live
// under pkg/adapters.
package ports
