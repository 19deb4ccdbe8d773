// Command markerq queues PDFs and URLs for Markdown conversion via
// marker_single, drains the queue one request at a time, and organizes the
// resulting files. It also manages favorite output directories, watches a
// drop folder, and exposes queue inspection subcommands.
package main
