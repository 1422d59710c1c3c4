// Package api exposes the document pipeline over HTTP: ingestion, batch
// fan-out, sweeps, lookups, and daemon status. All endpoints speak JSON
// and sit behind bearer token auth when a token is configured.
package api
