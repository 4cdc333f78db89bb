// Package analysis inspects recorded tracks beyond the scalar metrics.
//
//   - [PhasePortrait]: difference-to-target against velocity, one point per
//     frame; a damped model spirals into the origin
//   - [DominantPeriod]: oscillation period from the power spectrum of the
//     difference series
//
// A well-tuned overshoot track shows a short inward spiral:
//
//	pts := analysis.PhasePortrait(result.Tracks["scale"])
//	fmt.Print(analysis.PortraitToASCII(pts, 60, 20))
package analysis
