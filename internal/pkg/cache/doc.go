// Package cache provides a key/value store whose entries expire after a
// per-entry time-to-live.
//
// Two drivers are available. Memory keeps entries in process, split across
// independently locked shards, and evicts an expired entry lazily when it is
// read. Redis delegates storage and expiry to a Redis server so several
// replicas share one view.
package cache
