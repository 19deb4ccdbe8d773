// Package services defines shared utilities consumed by the workflow
// orchestrator and the external converter integration.
//
// Key responsibilities:
//   - Context helpers that stamp request IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (launch vs conversion vs download vs filesystem vs
//     disk-full) uniform across components.
package services
