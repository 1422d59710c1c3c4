// Package ingest drives documents through the pipeline: fetch the source
// bytes, checksum them, upload to blob storage, and issue a signed URL.
// Every step persists its outcome to the record before the next one runs,
// so a re-drive can always start from scratch safely.
package ingest
