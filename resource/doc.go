// Package resource partitions resource type names into supported,
// known-but-unsupported and unknown, and dispatches supported names to their
// schemas.
//
// The partition is total: every name falls into exactly one Status, and
// Dispatch reports the outcome before any decoding starts.
package resource
