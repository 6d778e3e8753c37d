package backend

import (
	"testing"

	"github.com/InVisionApp/astral-renderer-sub000/config"
	"github.com/InVisionApp/astral-renderer-sub000/internal/cmdlist"
)

func TestSoftwareBackendName(t *testing.T) {
	b := NewSoftwareBackend()
	if b.Name() != "software" {
		t.Errorf("Name() = %q, want %q", b.Name(), "software")
	}
}

func TestSoftwareBackendInit(t *testing.T) {
	b := NewSoftwareBackend()
	if err := b.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	b.Close()
}

func TestSoftwareBackendRecordsDrawsBetweenBeginAndEnd(t *testing.T) {
	b := NewSoftwareBackend()
	if err := b.Init(); err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	b.Begin()
	cmd := cmdlist.DrawCommand{Shader: 3, Blend: config.BlendSrcOver}
	b.DrawRenderData(0, cmd, nil, RenderValue[[4]float64]{}, cmdlist.VertexRange{Begin: 0, End: 6})

	draws := b.Draws()
	if len(draws) != 1 {
		t.Fatalf("expected 1 recorded draw, got %d", len(draws))
	}
	if draws[0].Command.Shader != 3 {
		t.Errorf("expected recorded shader handle 3, got %v", draws[0].Command.Shader)
	}

	var stats FrameStats
	b.End(&stats)
	if len(stats.Labels) != 1 || stats.Values[0] != 1 {
		t.Fatalf("expected End to report 1 submitted draw, got %+v", stats)
	}
}

func TestSoftwareBackendCreateValueSlotsAreSequential(t *testing.T) {
	b := NewSoftwareBackend()
	v0 := b.CreateTransformValue([6]float64{})
	v1 := b.CreateBrushValue(0)
	if v0.Index() == v1.Index() {
		t.Fatal("expected distinct slots for distinct CreateXValue calls")
	}
	if !v0.Valid() || !v1.Valid() {
		t.Fatal("expected newly created values to be valid")
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	if !IsRegistered("software") {
		t.Error("software backend should be auto-registered")
	}

	b := Get("software")
	if b == nil {
		t.Fatal("Get(software) returned nil")
	}
	if b.Name() != "software" {
		t.Errorf("Get(software).Name() = %q, want %q", b.Name(), "software")
	}
}

func TestRegistryGetUnregistered(t *testing.T) {
	b := Get("nonexistent")
	if b != nil {
		t.Error("Get(nonexistent) should return nil")
	}
}

func TestRegistryAvailable(t *testing.T) {
	available := Available()
	found := false
	for _, name := range available {
		if name == "software" {
			found = true
			break
		}
	}
	if !found {
		t.Error("Available() should include 'software'")
	}
}

func TestRegistryDefault(t *testing.T) {
	b := Default()
	if b == nil {
		t.Fatal("Default() returned nil")
	}
}

func TestRegistryMustDefault(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("MustDefault() panicked: %v", r)
		}
	}()
	b := MustDefault()
	if b == nil {
		t.Error("MustDefault() returned nil")
	}
}

func TestRegistryInitDefault(t *testing.T) {
	b, err := InitDefault()
	if err != nil {
		t.Fatalf("InitDefault() error = %v", err)
	}
	if b == nil {
		t.Fatal("InitDefault() returned nil backend")
	}
	defer b.Close()
}

func TestRegistryUnregister(t *testing.T) {
	testFactory := func() Backend {
		return NewSoftwareBackend()
	}
	Register("test-backend", testFactory)

	if !IsRegistered("test-backend") {
		t.Error("test-backend should be registered")
	}

	Unregister("test-backend")

	if IsRegistered("test-backend") {
		t.Error("test-backend should be unregistered")
	}
}

func TestRegistryIsRegistered(t *testing.T) {
	if !IsRegistered("software") {
		t.Error("software should be registered")
	}
	if IsRegistered("nonexistent") {
		t.Error("nonexistent should not be registered")
	}
}

func TestSoftwareBackendCloseClearsDraws(t *testing.T) {
	b := NewSoftwareBackend()
	if err := b.Init(); err != nil {
		t.Fatal(err)
	}
	b.Begin()
	b.DrawRenderData(0, cmdlist.DrawCommand{}, nil, RenderValue[[4]float64]{}, cmdlist.VertexRange{})
	b.Close()
	if len(b.Draws()) != 0 {
		t.Error("expected Close() to clear recorded draws")
	}
}

func BenchmarkSoftwareBackendDrawRenderData(b *testing.B) {
	be := NewSoftwareBackend()
	_ = be.Init()
	defer be.Close()
	be.Begin()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		be.DrawRenderData(uint32(i), cmdlist.DrawCommand{}, nil, RenderValue[[4]float64]{}, cmdlist.VertexRange{})
	}
}
