package alloc

import (
	"errors"
	"testing"

	"github.com/InVisionApp/astral-renderer-sub000/astralerr"
)

// TestIntervalAllocatorScenario reproduces scenario 1:
// layer_length=16, layers=1: allocate(5)->[0,5), allocate(4)->[5,9),
// release [0,5), allocate(6) fails on the first layer; after
// number_layers(2), allocate(6)->[0,6) on layer 1.
func TestIntervalAllocatorScenario(t *testing.T) {
	a := NewIntervalAllocator(16, 1)

	iv1, err := a.Allocate(5)
	if err != nil || iv1.Begin != 0 || iv1.End != 5 || iv1.Layer != 0 {
		t.Fatalf("allocate(5) = %+v, err=%v", iv1, err)
	}

	iv2, err := a.Allocate(4)
	if err != nil || iv2.Begin != 5 || iv2.End != 9 {
		t.Fatalf("allocate(4) = %+v, err=%v", iv2, err)
	}

	if err := a.Release(iv1); err != nil {
		t.Fatalf("release: %v", err)
	}

	if _, err := a.Allocate(6); !errors.Is(err, astralerr.ErrNoFreeInterval) {
		t.Fatalf("allocate(6) should fail on a single 16-length layer with only [0,5) free, got err=%v", err)
	}

	a.NumberLayers(2)
	iv3, err := a.Allocate(6)
	if err != nil || iv3.Begin != 0 || iv3.End != 6 || iv3.Layer != 1 {
		t.Fatalf("allocate(6) after number_layers(2) = %+v, err=%v", iv3, err)
	}

	if err := a.Check(); err != nil {
		t.Fatalf("check: %v", err)
	}
}

func TestIntervalAllocatorCoalesce(t *testing.T) {
	a := NewIntervalAllocator(100, 1)
	i1, _ := a.Allocate(10)
	i2, _ := a.Allocate(10)
	i3, _ := a.Allocate(10)

	if err := a.Release(i1); err != nil {
		t.Fatal(err)
	}
	if err := a.Release(i3); err != nil {
		t.Fatal(err)
	}
	if err := a.Release(i2); err != nil {
		t.Fatal(err)
	}

	// All released and adjacent: a single allocation of the full size
	// should now succeed, proving full coalescing back to one free node.
	big, err := a.Allocate(100)
	if err != nil || big.Begin != 0 || big.End != 100 {
		t.Fatalf("expected full coalesced allocation, got %+v err=%v", big, err)
	}
	if err := a.Check(); err != nil {
		t.Fatal(err)
	}
}

func TestIntervalAllocatorLayerLengthGrows(t *testing.T) {
	a := NewIntervalAllocator(4, 1)
	if _, err := a.Allocate(4); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Allocate(1); err == nil {
		t.Fatal("expected failure before growth")
	}
	a.LayerLength(8)
	iv, err := a.Allocate(4)
	if err != nil || iv.Begin != 4 {
		t.Fatalf("allocate after growth = %+v, err=%v", iv, err)
	}
	if err := a.Check(); err != nil {
		t.Fatal(err)
	}
}
