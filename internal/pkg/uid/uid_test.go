package uid

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUID_Generate(t *testing.T) {
	g := NewUUID()

	a, b := g.Generate(), g.Generate()
	if a == b {
		t.Fatalf("expected unique ids, got %s twice", a)
	}
	id, err := uuid.Parse(a)
	if err != nil {
		t.Fatalf("invalid uuid %q: %v", a, err)
	}
	if id.Version() != 7 {
		t.Fatalf("version = %d, want 7", id.Version())
	}
}

func TestSnowflake_Generate(t *testing.T) {
	g, err := NewSnowflake()
	if err != nil {
		t.Fatalf("NewSnowflake error: %v", err)
	}

	prev := g.Generate()
	for range 100 {
		next := g.Generate()
		if next <= prev {
			t.Fatalf("ids not increasing: %d <= %d", next, prev)
		}
		prev = next
	}
}
