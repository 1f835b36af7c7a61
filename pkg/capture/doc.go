// Package capture turns surface change notifications into rendered
// snapshots uploaded to a recognition service.
//
// # Flow
//
// A Pipeline receives ChangeEvents. Each event first goes through the
// surface bounds tracker, which may grow the surface synchronously, and then
// signals a debouncer. When the debouncer fires, the visible region is
// rendered and posted as a multipart upload by an Uploader. The outcome of
// each cycle is reported to a ResultHandler.
//
// At most one render and upload is in flight per Pipeline. A debounce fire
// that arrives while a cycle is running marks the pipeline dirty, and exactly
// one follow-up cycle runs when the current one ends, so the last change is
// always captured without overlapping uploads.
//
// # Usage
//
//	up := capture.NewUploader(http.DefaultClient, capture.UploaderConfig{
//	    ServiceURL: "http://localhost:9999",
//	}, logger)
//	p := capture.NewPipeline(canvas, tracker, renderer, up,
//	    capture.WithResultHandler(h),
//	)
//	defer p.Close(ctx)
//
//	p.OnChange(capture.ChangeEvent{Bounds: box, At: time.Now()})
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package capture
