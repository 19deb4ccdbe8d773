// Package preflight provides readiness checks for the converter binary and
// the filesystem paths markerq depends on.
//
// These checks run in two contexts:
//   - The workflow manager calls RunAll before draining the queue, so a
//     misconfigured output directory or missing converter fails fast
//     instead of failing every queued request.
//   - The CLI status output uses individual check functions to display
//     environment health.
package preflight
