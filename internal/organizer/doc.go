// Package organizer moves successful converter output into its final
// layout: either a per-document project folder holding a fixed-name
// marker output subfolder, or a flat layout directly under the chosen
// output directory.
//
// Existing files are never overwritten. Name collisions resolve by
// suffixing a numeric counter, and re-running on already-organized
// output is a no-op so a retried finalize step cannot duplicate files.
package organizer
