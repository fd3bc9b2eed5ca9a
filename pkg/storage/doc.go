// Package storage provides the key-value persistence port used by the durable
// send buffer, plus several backends.
//
// The durable buffer keeps two slots, pending and sent-but-unconfirmed, each
// a JSON array of payload strings. Any backend that can read, write and remove
// byte blobs by string key can host them:
//
//   - [Memory]: in-process map, lost on restart (tests, embedding hosts)
//   - [Dir]: one file per key, written atomically
//   - [Redis]: keys namespaced by a session prefix, optional TTL
//   - [SQLite]: a single kv table
//
// Use [Probe] to check that a backend is usable before relying on it.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package storage
