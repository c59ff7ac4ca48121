// ABOUTME: Identifier generation for embedded records
// ABOUTME: Uses ULIDs so task and note ids sort by creation time
package models

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewID returns a lowercase ULID for tasks and notes.
func NewID() string {
	return strings.ToLower(ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String())
}
