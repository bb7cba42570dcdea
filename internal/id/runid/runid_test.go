package runid

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

// TestGeneratorNewID ensures generated IDs are unique, valid, and ordered.
func TestGeneratorNewID(t *testing.T) {
	t.Parallel()

	gen := New()
	id1, err := gen.NewID()
	if err != nil {
		t.Fatalf("NewID() error = %v", err)
	}
	id2, err := gen.NewID()
	if err != nil {
		t.Fatalf("NewID() error = %v", err)
	}
	if id1 == id2 {
		t.Fatalf("expected unique IDs, got %s and %s", id1, id2)
	}
	if !Valid(id1) || !Valid(id2) {
		t.Fatalf("expected v7 ids, got %s and %s", id1, id2)
	}
	if id1 > id2 {
		t.Fatalf("expected time-ordered ids, got %s before %s", id1, id2)
	}
}

func TestGeneratorNewIDError(t *testing.T) {
	t.Parallel()

	gen := &Generator{newUUID: func() (uuid.UUID, error) { return uuid.Nil, errors.New("entropy exhausted") }}
	if _, err := gen.NewID(); err == nil {
		t.Fatal("expected error")
	}
}

func TestValid(t *testing.T) {
	t.Parallel()

	if Valid("not-a-uuid") {
		t.Fatal("garbage accepted")
	}
	if Valid(uuid.NewString()) {
		t.Fatal("v4 uuid accepted as run id")
	}
}
