// Package fetch downloads remote documents with a hard byte cap and a
// wall-clock timeout. Every failure carries exactly one error code so
// callers can decide whether another attempt is worthwhile.
package fetch
