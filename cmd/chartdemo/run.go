package main

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"sync/atomic"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/spf13/cobra"

	"github.com/gogpu/chartgpu"
)

// eventTap counts chart events for the end-of-run summary. Errors and
// device loss go straight to stderr as they arrive.
type eventTap struct {
	frames atomic.Int64
	zooms  atomic.Int64
	errs   atomic.Int64
}

func (t *eventTap) callbacks() chartgpu.Callbacks {
	return chartgpu.Callbacks{
		OnRendered:   func(time.Duration) { t.frames.Add(1) },
		OnZoomChange: func(chartgpu.ZoomRange, string) { t.zooms.Add(1) },
		OnError: func(e chartgpu.ErrorEvent) {
			t.errs.Add(1)
			fmt.Fprintf(os.Stderr, "chart error: %s during %s: %s\n", e.Code, e.Operation, e.Message)
		},
		OnDeviceLost: func(reason chartgpu.DeviceLostReason, message string) {
			fmt.Fprintf(os.Stderr, "device lost (%s): %s\n", reason, message)
		},
	}
}

// halProvider adapts a raw HAL device pair to the external provider shape
// the chart accepts.
type halProvider struct {
	device hal.Device
	queue  hal.Queue
}

func (p *halProvider) HalDevice() any { return p.device }
func (p *halProvider) HalQueue() any  { return p.queue }

// openNoop opens a device on the noop backend, which accepts every command
// and reads back zeroes. Enough to exercise the full pipeline on machines
// without Vulkan.
func openNoop() (*halProvider, func(), error) {
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create noop instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, nil, fmt.Errorf("no noop adapters")
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, nil, fmt.Errorf("open noop adapter: %w", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return &halProvider{device: openDev.Device, queue: openDev.Queue}, cleanup, nil
}

// openChart builds a chart on the selected backend. The returned cleanup
// must run after the chart is disposed.
func openChart(opts *chartgpu.ResolvedOptions, w, h, dpr float64, tap *eventTap) (*chartgpu.Chart, func(), error) {
	base := []chartgpu.Option{chartgpu.WithSize(w, h, dpr)}
	switch backendName {
	case "auto":
		chart, err := chartgpu.New(opts, tap.callbacks(), base...)
		if err != nil {
			return nil, nil, err
		}
		return chart, func() {}, nil
	case "noop":
		provider, cleanup, err := openNoop()
		if err != nil {
			return nil, nil, err
		}
		chart, err := chartgpu.New(opts, tap.callbacks(), append(base, chartgpu.WithDeviceProvider(provider))...)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		return chart, cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q (auto, noop)", backendName)
	}
}

type boundFeed struct {
	series int
	feed   *feed
}

func runScene(cmd *cobra.Command, args []string) error {
	scene, err := loadScene(scenePath)
	if err != nil {
		return err
	}
	if xlsxPath != "" {
		cols, order, err := workbookColumns(xlsxPath, xlsxSheet)
		if err != nil {
			return err
		}
		mergeWorkbook(scene, cols, order)
	}
	opts, err := scene.options()
	if err != nil {
		return err
	}

	var tap eventTap
	chart, cleanup, err := openChart(opts, scene.Width, scene.Height, scene.DPR, &tap)
	if err != nil {
		return err
	}
	defer cleanup()
	defer chart.Dispose()

	var feeds []boundFeed
	for i := range scene.Series {
		if st := scene.Series[i].Stream; st != nil {
			f, err := newFeed(st, uint64(i)+1)
			if err != nil {
				return fmt.Errorf("series %d: %w", i, err)
			}
			feeds = append(feeds, boundFeed{series: i, feed: f})
		}
	}

	ticks := frames
	if len(feeds) == 0 {
		ticks = 1 // static scene, one frame is the picture
	}
	start := time.Now()
	for frame := 0; frame < ticks; frame++ {
		if len(feeds) > 0 {
			batch := make([]chartgpu.SeriesAppend, len(feeds))
			for i, bf := range feeds {
				batch[i] = chartgpu.SeriesAppend{SeriesIndex: bf.series, Rows: bf.feed.next(batchSize)}
			}
			if err := chart.AppendDataBatch(batch); err != nil {
				return err
			}
		}
		if err := chart.TickOnce(); err != nil {
			return err
		}
	}
	elapsed := time.Since(start)

	m := chart.Metrics()
	fmt.Printf("rendered %d frames in %s (%.1f fps)\n",
		tap.frames.Load(), elapsed.Round(time.Millisecond),
		float64(tap.frames.Load())/elapsed.Seconds())
	fmt.Printf("frame times: avg %s  p50 %s  p95 %s  p99 %s\n",
		m.AvgFrame.Round(time.Microsecond), m.P50Frame.Round(time.Microsecond),
		m.P95Frame.Round(time.Microsecond), m.P99Frame.Round(time.Microsecond))
	if n := tap.zooms.Load(); n > 0 {
		fmt.Printf("zoom window moved %d times\n", n)
	}
	if outputPath != "" {
		if err := writePNG(chart, outputPath); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", outputPath)
	}
	return nil
}

func runBench(cmd *cobra.Command, args []string) error {
	opts := &chartgpu.ResolvedOptions{
		Theme:      "dark",
		YAxis:      chartgpu.AxisOptions{AutoBounds: chartgpu.BoundsVisible},
		Zoom:       &chartgpu.ZoomOptions{Start: 75, End: 100},
		AutoScroll: true,
	}
	for i := 0; i < seriesCount; i++ {
		opts.Series = append(opts.Series, chartgpu.SeriesOptions{
			Type:              chartgpu.SeriesLine,
			Name:              fmt.Sprintf("s%d", i),
			Sampling:          chartgpu.SamplingLTTB,
			SamplingThreshold: 4096,
		})
	}

	var tap eventTap
	chart, cleanup, err := openChart(opts, 1280, 720, 1, &tap)
	if err != nil {
		return err
	}
	defer cleanup()
	defer chart.Dispose()

	// Prime the interval-zero snapshots so the end-of-run reads cover
	// exactly the bench window.
	proc, procErr := process.NewProcess(int32(os.Getpid()))
	if procErr == nil {
		_, _ = proc.Percent(0)
	}
	_, _ = cpu.Percent(0, false)

	feeds := make([]*feed, seriesCount)
	for i := range feeds {
		feeds[i], _ = newFeed(&StreamScene{Kind: "walk", Base: 50, Noise: 1}, uint64(i)+1)
	}

	start := time.Now()
	for frame := 0; frame < benchFrames; frame++ {
		batch := make([]chartgpu.SeriesAppend, len(feeds))
		for i, f := range feeds {
			batch[i] = chartgpu.SeriesAppend{SeriesIndex: i, Rows: f.next(benchBatch)}
		}
		if err := chart.AppendDataBatch(batch); err != nil {
			return err
		}
		if err := chart.TickOnce(); err != nil {
			return err
		}
	}
	elapsed := time.Since(start)

	m := chart.Metrics()
	points := int64(benchFrames) * int64(benchBatch) * int64(seriesCount)
	fmt.Printf("series %d  batch %d  frames %d\n", seriesCount, benchBatch, benchFrames)
	fmt.Printf("%.0f points/sec  %.1f frames/sec\n",
		float64(points)/elapsed.Seconds(), float64(benchFrames)/elapsed.Seconds())
	fmt.Printf("frame times: avg %s  p50 %s  p95 %s  p99 %s  max %s\n",
		m.AvgFrame.Round(time.Microsecond), m.P50Frame.Round(time.Microsecond),
		m.P95Frame.Round(time.Microsecond), m.P99Frame.Round(time.Microsecond),
		m.MaxFrame.Round(time.Microsecond))
	if m.TotalDrops > 0 {
		fmt.Printf("dropped %d frames (%d consecutive at worst)\n", m.TotalDrops, m.ConsecutiveDrops)
	}
	if procErr == nil {
		if pct, err := proc.Percent(0); err == nil {
			fmt.Printf("process cpu %.1f%%", pct)
			if mi, err := proc.MemoryInfo(); err == nil {
				fmt.Printf("  rss %.1f MiB", float64(mi.RSS)/(1<<20))
			}
			fmt.Println()
		}
	}
	if sys, err := cpu.Percent(0, false); err == nil && len(sys) > 0 {
		fmt.Printf("system cpu %.1f%%\n", sys[0])
	}
	return nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	var tap eventTap
	chart, cleanup, err := openChart(&chartgpu.ResolvedOptions{}, 64, 64, 1, &tap)
	if err != nil {
		return err
	}
	defer cleanup()
	defer chart.Dispose()

	caps := chart.Capabilities()
	fmt.Printf("backend:          %s\n", caps.Backend)
	fmt.Printf("adapter:          %s", caps.AdapterName)
	if caps.AdapterType != "" {
		fmt.Printf(" (%s)", caps.AdapterType)
	}
	fmt.Println()
	fmt.Printf("max texture size: %d\n", caps.MaxTextureSize)
	fmt.Printf("compute:          %v\n", caps.SupportsCompute)
	return nil
}

// writePNG reads back the current frame and writes it out. The surface is
// BGRA; channels are swapped into RGBA on the way.
func writePNG(chart *chartgpu.Chart, path string) error {
	buf, w, h, err := chart.Pixels()
	if err != nil {
		return err
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i+3 < len(buf); i += 4 {
		img.Pix[i+0] = buf[i+2]
		img.Pix[i+1] = buf[i+1]
		img.Pix[i+2] = buf[i+0]
		img.Pix[i+3] = buf[i+3]
	}
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	return png.Encode(f, img)
}
