// Package workflow drives queue processing: it drains pending conversion
// requests in insertion order, runs exactly one converter process at a
// time, and owns every request status transition.
//
// The Manager claims a per-session instance lock before starting, runs
// preflight checks, and then loops: fetch the oldest pending request,
// mark it running, stream converter output into the request's log file
// and the shared stream hub, and finalize the request as Succeeded,
// Failed, or Cancelled. Request-scoped failures never stop the loop;
// resource exhaustion (such as a full output disk) requeues the request
// and pauses the loop until the retry interval elapses.
package workflow
