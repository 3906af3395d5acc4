package routing_test

import (
	"testing"

	"github.com/go-netsim/netsimd/internal/routing"
)

func TestRouterIDAllocatorSequentialFromOne(t *testing.T) {
	t.Parallel()

	a := routing.NewRouterIDAllocator()

	first, err := a.Allocate()
	if err != nil {
		t.Fatal(err)
	}
	if first != "0.0.0.1" {
		t.Fatalf("first = %s, want 0.0.0.1", first)
	}

	second, err := a.Allocate()
	if err != nil {
		t.Fatal(err)
	}
	if second != "0.0.0.2" {
		t.Fatalf("second = %s, want 0.0.0.2", second)
	}

	if !a.IsAllocated(first) || !a.IsAllocated(second) {
		t.Fatal("both IDs should be marked allocated")
	}
}

func TestRouterIDAllocatorRelease(t *testing.T) {
	t.Parallel()

	a := routing.NewRouterIDAllocator()

	id, err := a.Allocate()
	if err != nil {
		t.Fatal(err)
	}

	a.Release(id)

	if a.IsAllocated(id) {
		t.Fatal("released ID should no longer be allocated")
	}
}
