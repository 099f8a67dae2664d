package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateID builds a human-readable identifier: uppercase prefix plus a
// short UUID fragment. Uniqueness is enforced by the primary key; callers
// retry with a fresh ID on the rare collision.
func GenerateID(prefix string) string {
	id := uuid.New().String()
	return fmt.Sprintf("%s-%s", strings.ToUpper(prefix), id[:8])
}

// Now returns the current time in UTC.
func Now() time.Time {
	return time.Now().UTC()
}
