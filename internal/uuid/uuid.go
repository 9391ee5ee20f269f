// Package uuid generates time-ordered identifiers for import batches and chat messages.
package uuid

import (
	"time"

	googleuuid "github.com/google/uuid"
)

// New returns a UUIDv7 string. Falls back to a random UUIDv4 if the
// clock-sequenced generator fails.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		return googleuuid.New().String()
	}
	return id.String()
}

// CreatedAt returns the timestamp embedded in a UUIDv7 string.
// ok is false for malformed ids and for versions that carry no timestamp.
func CreatedAt(s string) (t time.Time, ok bool) {
	id, err := googleuuid.Parse(s)
	if err != nil || id.Version() != 7 {
		return time.Time{}, false
	}
	sec, nsec := id.Time().UnixTime()
	return time.Unix(sec, nsec), true
}
