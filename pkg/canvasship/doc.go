// Package canvasship provides an embeddable companion agent for an
// interactive drawing surface.
//
// A Session keeps a framed TCP tunnel to a local relay open, reconnecting
// with exponential backoff, and fans every received frame out to WebSocket
// subscribers. It also watches a JSON surface document: each change grows
// the logical surface when content nears its edge and, after a quiet
// period, the visible region is rendered to PNG and posted to a
// recognition service.
//
// # Basic Usage
//
//	cfg := canvasship.DefaultConfig()
//	cfg.DocumentPath = "/path/to/canvas.json"
//	cfg.ServiceURL = "http://localhost:9999"
//
//	s, err := canvasship.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := s.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	// ... run until shutdown signal ...
//	if err := s.Stop(); err != nil {
//	    log.Printf("shutdown error: %v", err)
//	}
//
// # Event Handling
//
// Implement [EventHandler], or embed [BaseEventHandler] and override the
// events of interest, and pass it via [WithEventHandler].
//
// # Lifecycle States
//
// A Session is in one of [StateStopped], [StateStarting], [StateRunning],
// [StateStopping] or [StateCrashed]. Use [Session.Status] to query it and
// [Session.Done] to wait for a Once run.
package canvasship
