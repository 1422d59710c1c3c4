// Package config loads, normalizes, and validates intake configuration.
//
// Configuration lives in a TOML file (default ~/.config/intake/config.toml)
// and is decoded over repository defaults. Duration-like fields are plain
// integers (seconds unless the name says otherwise) so the file stays
// friendly to hand editing. The resulting Config struct is passed explicitly
// into every constructor; nothing in the pipeline reads ambient environment
// state, which keeps retry limits, backoff bases, and byte caps injectable
// in tests.
package config
