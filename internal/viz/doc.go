// Package viz renders animation runs in the terminal.
//
//   - [PlotTrack]: asciigraph chart of a track's value against its target
//   - [RunLive]: Bubble Tea program that advances a simulator in real time
//   - [Canvas]: Braille-based pixel canvas used by the live view
//
// # Key Bindings
//
//	Space - Pause/Resume
//	F     - Flip every target between its two endpoints
//	1-9   - Flip a single track
//	R     - Reset to the initial state
//	T     - Cycle color themes
//	Q     - Quit
package viz
