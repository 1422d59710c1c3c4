// Package daemon ties the API server and the sweep scheduler into a single
// lifecycle with flock-based locking to prevent multiple intaked instances
// from sharing one database.
package daemon
