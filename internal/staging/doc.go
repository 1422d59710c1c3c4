// Package staging handles session-scoped uploads that arrive before their
// owning record exists. Objects land under temp/{session} first; claiming
// a session moves them into the permanent layout and creates completed
// records for them, while discarding drops the whole session.
package staging
