// Package locker serializes work per key.
//
// Memory is a keyed mutex table for a single process. Redis takes a
// SET NX PX lease so several replicas serialize on the same key; the lease
// expires on its own if the holder dies.
package locker
