// Package sweep re-drives failed document records whose retry is due. A
// sweep pass reclaims stalled processing records, stamps exhausted ones
// terminal, and pushes the rest back through the ingestion pipeline with
// a pacing delay between records.
package sweep
