// Package render rasterises a stroke scene into a PNG image.
//
// Strokes are filled as polylines with round joins and caps using
// golang.org/x/image/vector, over an opaque background fill. The output
// covers exactly the requested region at one pixel per surface unit.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package render
