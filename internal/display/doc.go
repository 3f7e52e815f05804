// Package display implements the GTK4 overlay surface for scrawld.
// It renders annotation markers as small layer-shell windows pinned to
// their capture positions and opens editor popups next to them, placed
// by the geometry package so they stay fully on screen.
package display
