// Package runid generates the identifiers that tag every log line of a run.
package runid

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator creates time-ordered run identifiers (UUID v7), so run ids sort
// by start time in log storage.
type Generator struct {
	newUUID func() (uuid.UUID, error)
}

// New creates a new Generator.
func New() *Generator {
	return &Generator{newUUID: uuid.NewV7}
}

// NewID returns a fresh run id.
func (g *Generator) NewID() (string, error) {
	id, err := g.newUUID()
	if err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	return id.String(), nil
}

// Valid reports whether s is a run id produced by a Generator.
func Valid(s string) bool {
	id, err := uuid.Parse(s)
	return err == nil && id.Version() == 7
}
