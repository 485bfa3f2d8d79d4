// Package bridge runs charts behind an in-process worker model: a
// controller loop owns every chart and the GPU, and a proxy is the
// host-side handle. The two sides communicate over unbounded FIFO
// mailboxes, one per direction, so message order is preserved per
// direction and per chart id.
//
//   - Controller: worker side. Run consumes inbound messages, applies
//     them to the owned charts, and renders at most one frame per
//     message burst.
//   - Proxy: host side. Methods enqueue inbound messages; chart events
//     arrive through the chartgpu.Callbacks registered at CreateChart.
//
// # Example usage
//
//	proxy, ctrl := bridge.New(bridge.Config{
//	    ChartOptions: []chartgpu.Option{chartgpu.WithDeviceProvider(provider)},
//	})
//	go ctrl.Run()
//	defer proxy.Close()
//
//	caps, err := proxy.CreateChart("main", opts, 800, 600, 2, callbacks)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = caps
//
//	payload, count, stride, _ := bridge.EncodeRows(chartgpu.SeriesLine, rows)
//	proxy.AppendData("main", 0, payload, count, stride)
//
// CreateChart blocks until the controller answers ready, with a 30 s
// default deadline. Pointer events forwarded before ready are dropped;
// resize updates coalesce to at most one message per frame interval.
// Dispose cancels the chart's pending requests with ErrDisposed.
package bridge
