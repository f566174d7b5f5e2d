// Package types defines shared Go types used by both the annotator and server.
// These are the canonical in-memory representations of part datasets and the
// flags derived from them, independent of any storage or wire format.
package types
