// Package notifications delivers workflow events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. The Service methods cover the major conversion milestones so the
// workflow manager can emit consistent, user-friendly messages without
// duplicating HTTP glue.
package notifications
