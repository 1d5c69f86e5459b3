// Package protocol owns the versioned test server wire contract.
//
// Ownership boundary:
// - request/response envelope construction
// - api version acceptance and operation resolution
// - body/contract kind checks before serialization
// - error-shaped response detection
package protocol
