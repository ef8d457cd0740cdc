// Package planner computes segment plans for rendered feeds.
//
// Plan is a pure function over a normalized layout: no I/O, deterministic
// output for identical input. The SEGMENTED partitioner balances output
// durations around a target while preferring fewer, longer segments; span
// boundaries only ever fall on chapter or file boundaries, so no audio is
// trimmed or duplicated.
package planner
