// Package uid generates identifiers: numeric snowflake ids for rows and
// UUIDv7 strings for token ids and correlation ids.
package uid

// NumberID produces unique, roughly time-ordered int64 identifiers.
type NumberID interface {
	Generate() int64
}

// StringID produces unique string identifiers.
type StringID interface {
	Generate() string
}
