// Package network implements the peer-to-peer wire protocol: a tagged JSON
// message sum type framed one object per line over TCP, a peer table with
// timeout-based eviction, and the per-connection handler that dispatches
// incoming messages against a node's ledger.
package network
