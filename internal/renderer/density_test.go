package renderer

import (
	"testing"

	"github.com/gogpu/chartgpu/internal/gputest"
	"github.com/gogpu/wgpu/hal"
)

func TestDensityRendererDefaults(t *testing.T) {
	device, queue, cleanup := gputest.Device(t)
	defer cleanup()

	pipes := NewPipelines(device, queue)
	defer pipes.Destroy()

	r := NewDensityRenderer(pipes)
	defer r.Destroy()

	if r.cols != 256 || r.rows != 256 {
		t.Errorf("default grid = %dx%d, want 256x256", r.cols, r.rows)
	}
	r.SetGrid(0, -5)
	if r.cols != 1 || r.rows != 1 {
		t.Errorf("clamped grid = %dx%d, want 1x1", r.cols, r.rows)
	}
	r.SetCurve(99)
	if r.curve != CurveLinear {
		t.Errorf("curve = %d, want linear fallback", r.curve)
	}
	r.SetCurve(CurveLog)
	if r.curve != CurveLog {
		t.Errorf("curve = %d, want %d", r.curve, CurveLog)
	}
}

func TestDensityRendererLUT(t *testing.T) {
	device, queue, cleanup := gputest.Device(t)
	defer cleanup()

	pipes := NewPipelines(device, queue)
	defer pipes.Destroy()

	r := NewDensityRenderer(pipes)
	defer r.Destroy()

	r.SetColormap(grayRamp)
	if r.lut[0][0] != 0 {
		t.Errorf("lut[0] = %v, want black", r.lut[0])
	}
	if r.lut[densityLutSize-1][0] != 1 {
		t.Errorf("lut[last] = %v, want white", r.lut[densityLutSize-1])
	}
	for i := 1; i < densityLutSize; i++ {
		if r.lut[i][0] < r.lut[i-1][0] {
			t.Fatalf("lut not monotone at %d", i)
		}
	}
}

func TestDensityRendererPrepareAndDispatch(t *testing.T) {
	device, queue, cleanup := gputest.Device(t)
	defer cleanup()

	pipes := NewPipelines(device, queue)
	defer pipes.Destroy()

	r := NewDensityRenderer(pipes)
	defer r.Destroy()
	r.SetGrid(64, 32)

	// Without data the renderer stays inert.
	if err := r.Prepare(Input{Viewport: [2]float32{640, 480}, Plot: [4]float32{0, 0, 640, 480}}); err != nil {
		t.Fatalf("Prepare without data failed: %v", err)
	}
	if r.ready {
		t.Error("ready without data")
	}

	buf := testStorageBuffer(t, device, 1024)
	defer device.DestroyBuffer(buf)

	in := Input{
		Data:     buf,
		DataSize: 1024,
		Count:    128,
		Viewport: [2]float32{640, 480},
		Plot:     [4]float32{0, 0, 640, 480},
		XA:       1, YA: 1,
	}
	if err := r.Prepare(in); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if !r.ready {
		t.Fatal("not ready after Prepare with data")
	}
	if r.computeBind == nil || r.drawBind == nil {
		t.Fatal("bind groups missing")
	}
	if r.cellsCap < 64*32*4 {
		t.Errorf("cellsCap = %d, want at least %d", r.cellsCap, 64*32*4)
	}

	// The full compute + draw + submit cycle runs on the noop backend.
	enc, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "density_test"})
	if err != nil {
		t.Fatalf("CreateCommandEncoder failed: %v", err)
	}
	if err := enc.BeginEncoding("density_test"); err != nil {
		t.Fatalf("BeginEncoding failed: %v", err)
	}
	r.Dispatch(enc)
	cmd, err := enc.EndEncoding()
	if err != nil {
		t.Fatalf("EndEncoding failed: %v", err)
	}
	device.FreeCommandBuffer(cmd)
}

func TestDensityRendererRebindOnGridChange(t *testing.T) {
	device, queue, cleanup := gputest.Device(t)
	defer cleanup()

	pipes := NewPipelines(device, queue)
	defer pipes.Destroy()

	r := NewDensityRenderer(pipes)
	defer r.Destroy()
	r.SetGrid(8, 8)

	buf := testStorageBuffer(t, device, 512)
	defer device.DestroyBuffer(buf)
	in := Input{Data: buf, DataSize: 512, Count: 10, Viewport: [2]float32{100, 100}, Plot: [4]float32{0, 0, 100, 100}}

	if err := r.Prepare(in); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	bind := r.computeBind

	// Growing the grid past the cell capacity swaps buffers and rebinds.
	r.SetGrid(128, 128)
	if err := r.Prepare(in); err != nil {
		t.Fatalf("Prepare after grid change failed: %v", err)
	}
	if r.computeBind == bind {
		t.Error("compute bind group survived a cell buffer swap")
	}
}
