package api

import "github.com/google/uuid"

// NewID returns a random identifier for tabs and IPC requests.
func NewID() string {
	return uuid.NewString()
}
