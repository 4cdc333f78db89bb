// Package processors implements the dynamics models driven by impel
// processors:
//
//   - [OvershootProcessor]: accelerates toward the target in proportion to
//     the distance and brakes harder when moving away, so it overshoots and
//     settles
//   - [SmoothProcessor]: critically damped approach without overshoot
//   - [SpringProcessor]: damped harmonic spring (harmonica)
//
// Models are wired into a registry at startup with [RegisterAll] or
// [RegisterDefaults].
package processors
