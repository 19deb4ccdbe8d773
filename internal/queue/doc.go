// Package queue persists conversion requests in SQLite and exposes helpers
// for driving their lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, and status transitions. Insertion order determines processing
// order; the workflow orchestrator guarantees at most one request is
// running at a time.
//
// The database is treated as transient session state rather than an
// archive: requests left running by a dead session are failed at open, and
// schema changes bump the version in schema.go and require clearing the
// database.
package queue
