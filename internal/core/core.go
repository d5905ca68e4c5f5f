package core

// Package core contains the ledger's fundamental data structures — Transaction
// and Block — along with the canonical encoding and proof-of-work logic that
// give them stable, verifiable hashes.
