package main

import (
	"github.com/bft-labs/canvasship/pkg/canvasship"
	"github.com/bft-labs/canvasship/pkg/log"
)

// cliEvents logs session events not already logged by the library.
type cliEvents struct {
	canvasship.BaseEventHandler
	logger log.Logger
}

func (e *cliEvents) OnCapture(ev canvasship.CaptureEvent) {
	// Failures are already logged by the pipeline.
	if !ev.Success {
		return
	}
	e.logger.Debug("capture cycle finished",
		log.Int("image_bytes", ev.ImageBytes),
		log.Duration("took", ev.Duration),
	)
}

func (e *cliEvents) OnTunnelStateChange(ev canvasship.TunnelEvent) {
	fields := []log.Field{log.Stringer("from", ev.Previous), log.Stringer("to", ev.Current)}
	if ev.Err != nil {
		fields = append(fields, log.Err(ev.Err))
	}
	e.logger.Debug("tunnel state", fields...)
}
