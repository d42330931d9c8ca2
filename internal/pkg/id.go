package pkg

import "github.com/google/uuid"

// GenerateNewSessionID returns a random identifier for a player session.
func GenerateNewSessionID() string {
	return uuid.NewString()
}

// IsSessionID reports whether id looks like a value produced by GenerateNewSessionID.
func IsSessionID(id string) bool {
	return uuid.Validate(id) == nil
}
