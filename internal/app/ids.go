package app

import (
	"strings"

	"github.com/google/uuid"
)

// NewQuizID returns a short random quiz id (7 hex characters) suitable for join links.
func NewQuizID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:7]
}

// NewConnectionID returns an opaque id for one live connection.
func NewConnectionID() string {
	return uuid.NewString()
}
