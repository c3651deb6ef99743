// Package internal groups helpers that are private to goIdentity.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher and Sink implementations)
//   - metrics: lock-free counters and latency histograms
//   - security: configuration posture report
//
// # What this package must NOT do
//
//   - Export types that appear in the public goIdentity API except through
//     root-package aliases.
//   - Be imported by any package outside the goIdentity module.
package internal
