// Package uuid provides session ID generation.
package uuid

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator creates random (v4) UUID strings for submission session IDs.
// Session IDs are only used to correlate log lines, so they carry no
// timestamp or ordering information.
type Generator struct{}

// New creates a new Generator.
func New() *Generator {
	return &Generator{}
}

// NewID returns a UUIDv4 string.
func (Generator) NewID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid4: %w", err)
	}
	return id.String(), nil
}
