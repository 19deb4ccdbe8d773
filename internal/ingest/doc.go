// Package ingest turns user-supplied sources into conversion-ready local
// files: it validates local PDF paths, downloads URL sources into the
// staging directory, and watches an optional drop folder for new documents.
package ingest
