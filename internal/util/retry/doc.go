// Package retry provides bounded retry and polling helpers for control-plane calls.
//
// [WithExponentialBackoff] retries an operation with configurable max attempts,
// initial delay and maximum delay. [Once] is the single fixed-delay retry used for
// throttled provider calls, and [Until] polls a condition at a fixed interval
// until it reports completion or the context ends.
//
// Errors wrapped with [Fatal] are never retried.
package retry
