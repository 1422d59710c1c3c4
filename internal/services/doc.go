// Package services provides cross-cutting helpers shared by pipeline
// components: sentinel error markers with wrapping, and context keys for
// correlating log output with document records and requests.
package services
