package gpu

import (
	"testing"

	"github.com/gogpu/chartgpu/internal/gputest"
)

func TestSurfaceEnsure(t *testing.T) {
	device, _, cleanup := gputest.Device(t)
	defer cleanup()

	s := NewSurface(device)
	defer s.Destroy()

	if err := s.Ensure(800, 600); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	w, h := s.Size()
	if w != 800 || h != 600 {
		t.Errorf("Size = %dx%d, want 800x600", w, h)
	}
	if s.ColorView() == nil {
		t.Error("expected non-nil MSAA color view")
	}
	if s.ResolveView() == nil {
		t.Error("expected non-nil resolve view")
	}
	if s.ResolveTexture() == nil {
		t.Error("expected non-nil resolve texture")
	}

	// Same size is a no-op.
	if err := s.Ensure(800, 600); err != nil {
		t.Fatalf("Ensure (same size) failed: %v", err)
	}
}

func TestSurfaceEnsureInvalidSize(t *testing.T) {
	device, _, cleanup := gputest.Device(t)
	defer cleanup()

	s := NewSurface(device)
	if err := s.Ensure(0, 600); err == nil {
		t.Error("expected error for zero width")
	}
	if err := s.Ensure(800, 0); err == nil {
		t.Error("expected error for zero height")
	}
}

func TestSurfaceResize(t *testing.T) {
	device, _, cleanup := gputest.Device(t)
	defer cleanup()

	s := NewSurface(device)
	defer s.Destroy()

	if err := s.Ensure(100, 100); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if err := s.Ensure(200, 100); err != nil {
		t.Fatalf("Ensure (resize) failed: %v", err)
	}
	w, h := s.Size()
	if w != 200 || h != 100 {
		t.Errorf("Size after resize = %dx%d, want 200x100", w, h)
	}
}

func TestSurfaceDestroy(t *testing.T) {
	device, _, cleanup := gputest.Device(t)
	defer cleanup()

	s := NewSurface(device)
	if err := s.Ensure(64, 64); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	s.Destroy()
	if s.ColorView() != nil {
		t.Error("expected nil color view after Destroy")
	}
	w, h := s.Size()
	if w != 0 || h != 0 {
		t.Errorf("Size after Destroy = %dx%d, want 0x0", w, h)
	}

	// Destroy again must be safe, and the surface must be reusable.
	s.Destroy()
	if err := s.Ensure(32, 32); err != nil {
		t.Fatalf("Ensure after Destroy failed: %v", err)
	}
	s.Destroy()
}
