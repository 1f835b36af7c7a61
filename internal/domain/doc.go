// Package domain contains the core entities of canvasship.
//
// It has no dependencies on infrastructure concerns (HTTP, file system,
// logging) and contains only value types and their rules.
//
// # Entities
//
//   - [Document]: The drawing on the surface: strokes plus an optional viewport
//   - [Stroke]: One pen stroke, a polyline with width and colour
//   - [State]: Persistent agent state (surface size, capture counters)
package domain
