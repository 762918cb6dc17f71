// Package tiercache implements a multi-tier cache behind a single operation
// surface: an in-process tier, a Redis tier, and a combined tier that layers
// the two with read-through, write-through and fallback degradation.
//
// Components:
//   - Cache: the operation surface (get/set/delete/exists plus hash-field
//     operations), implemented by every tier.
//   - LocalCache: in-process storage. Scalars live in a provider.Provider
//     byte store (deterministic LRU by default; Ristretto and BigCache
//     adapters available); hash entries live in a separate bounded table.
//   - RedisCache: remote storage over go-redis, standalone or cluster.
//     A miss and a connectivity failure are distinct outcomes.
//   - MultiCache: local-first reads with remote backfill, remote-first
//     writes, per-call degradation when the remote tier is unavailable.
//   - Manager: constructs and owns one Cache for the process lifetime;
//     NewManager dispatches on Settings.Type.
//
// Values are opaque bytes. Typed[V] pairs a Cache with a codec.Codec[V]
// when callers want struct round-trips instead of raw payloads.
package tiercache
