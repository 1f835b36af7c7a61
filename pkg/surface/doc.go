// Package surface decides when the logical drawing surface must grow to keep
// drawn content inside it.
//
// A Tracker owns the surface size. Apply compares the bounding box of the
// drawn content against the current size plus a margin and either leaves the
// size alone, grows it on both axes at once, or refuses because the result
// would exceed the configured maximum.
//
//	tr := surface.NewTracker(surface.Size{W: 2000, H: 2000}, 1000, 100000)
//	d := tr.Apply(surface.Rect{MaxX: 2500, MaxY: 1800})
//	// d.Kind == surface.Grow, d.Size == {3500, 2800}
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package surface
