// Package docstore persists document records in SQLite and exposes helpers
// for driving their lifecycle.
//
// The Store manages database connections, schema initialization, retry
// candidate selection, soft deletion, and the status transitions the
// ingestion orchestrator and retry sweeper persist. A document record is
// the single source of truth for how far an ingestion attempt got; every
// pipeline step writes its outcome here before the next step runs, which is
// what makes sweeper re-drives safe.
//
// Treat this package as the single source of truth for record semantics;
// when you add new statuses or error codes, update schema.sql and bump
// schemaVersion.
package docstore
