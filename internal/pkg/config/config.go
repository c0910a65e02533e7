package config

import (
	"io"
	"time"
)

// TimeConfig reads integer values and scales them to a duration unit.
type TimeConfig interface {
	// GetSecond reads key as a number of seconds.
	GetSecond(key string) time.Duration
	// GetMinute reads key as a number of minutes.
	GetMinute(key string) time.Duration
	// GetDay reads key as a number of 24h days.
	GetDay(key string) time.Duration
}

// Config defines the typed getters the application reads its settings through.
//
// Missing keys yield the zero value of the requested type; callers decide
// whether zero is acceptable.
type Config interface {
	io.Closer
	TimeConfig

	// GetBool retrieves the value associated with key as a bool.
	GetBool(key string) bool
	// GetInt retrieves the value associated with key as an int.
	GetInt(key string) int
	// GetInt32 retrieves the value associated with key as an int32.
	GetInt32(key string) int32
	// GetInt64 retrieves the value associated with key as an int64.
	GetInt64(key string) int64
	// GetUint retrieves the value associated with key as a uint.
	GetUint(key string) uint
	// GetFloat64 retrieves the value associated with key as a float64.
	GetFloat64(key string) float64
	// GetString retrieves the value associated with key as a string.
	GetString(key string) string

	// GetArray retrieves a comma separated value as a slice of trimmed,
	// non-empty strings. YAML sequences are accepted too.
	GetArray(key string) []string
}
