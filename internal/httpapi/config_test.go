package httpapi

import (
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestSetMaxBodyBytes_DefaultWhenNonPositive(t *testing.T) {
	SetMaxBodyBytes(-1)
	if maxBodyBytes != 1<<20 {
		t.Fatalf("expected default 1MiB, got %d", maxBodyBytes)
	}
	SetMaxBodyBytes(0)
	if maxBodyBytes != 1<<20 {
		t.Fatalf("expected default 1MiB on zero, got %d", maxBodyBytes)
	}
}

func TestSetMaxBodyBytes_PositiveSetsValue(t *testing.T) {
	SetMaxBodyBytes(1234)
	if maxBodyBytes != 1234 {
		t.Fatalf("expected 1234, got %d", maxBodyBytes)
	}
	SetMaxBodyBytes(0) // restore default for other tests
}

func TestSetClassifyMaxBodyBytes(t *testing.T) {
	SetClassifyMaxBodyBytes(-1)
	if classifyMaxBodyBytes != 16<<20 {
		t.Fatalf("expected default 16MiB, got %d", classifyMaxBodyBytes)
	}
	SetClassifyMaxBodyBytes(1 << 20)
	if classifyMaxBodyBytes != 1<<20 {
		t.Fatalf("expected 1MiB, got %d", classifyMaxBodyBytes)
	}
	SetClassifyMaxBodyBytes(0)
}

func TestSetCORSOptions_CopiesSlices(t *testing.T) {
	origins := []string{"http://localhost:3000"}
	SetCORSOptions(true, origins, []string{"GET"}, nil)
	origins[0] = "mutated"
	if corsAllowedOrigins[0] != "http://localhost:3000" {
		t.Fatalf("expected copied slice, got %q", corsAllowedOrigins[0])
	}
	SetCORSOptions(false, nil, nil, nil)
}

func TestMountSwagger_NoOp(t *testing.T) {
	// Default build excludes the swagger UI; must not panic.
	MountSwagger(chi.NewRouter())
}
