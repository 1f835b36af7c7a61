package cliconfig

import (
	"github.com/bft-labs/canvasship/pkg/canvasship"
)

// SessionConfig converts a validated Config into a library configuration.
func (c Config) SessionConfig() (canvasship.Config, error) {
	vp, err := c.ParseViewport()
	if err != nil {
		return canvasship.Config{}, err
	}

	out := canvasship.Config{
		DocumentPath:   c.DocumentPath,
		StateDir:       c.StateDir,
		TunnelHost:     c.TunnelHost,
		TunnelPort:     c.TunnelPort,
		MaxFrameBytes:  uint32(c.MaxFrameBytes),
		ServiceURL:     c.ServiceURL,
		UploadPath:     c.UploadPath,
		HTTPTimeout:    c.HTTPTimeout,
		Quiet:          c.Quiet,
		GrowMargin:     c.GrowMargin,
		MaxSurface:     c.MaxSurface,
		InitialSurface: c.InitialSurface,
		RelayListen:    c.RelayListen,
		BackoffInitial: c.BackoffInitial,
		BackoffMax:     c.BackoffMax,
		Once:           c.Once,
	}
	if vp.Positioned {
		out.Viewport = canvasship.Viewport{X: vp.X, Y: vp.Y, Width: vp.Width, Height: vp.Height}
	} else {
		out.ViewportWidth = vp.Width
		out.ViewportHeight = vp.Height
	}
	out.SetDefaults()
	return out, nil
}
