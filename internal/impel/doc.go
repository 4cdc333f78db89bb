// Package impel provides the core of the value-animation engine.
//
// An impeller drives scalar values toward targets frame by frame. The
// package defines the pieces every dynamics model shares:
//
//   - [Processor]: driver that owns a collection of animated instances
//   - [Init]: immutable tuning record bound to an instance at creation
//   - [VelocityInit], [VelocityData]: base init/state carried by every model
//   - [Pool]: slot storage addressed by generation-checked [Handle]s
//   - [Registry]: lookup from a model [Tag] to a processor factory
//
// # Example
//
//	_ = processors.RegisterDefaults()
//	p, _ := impel.CreateProcessor(impel.TagOvershoot)
//	h, _ := p.Create(init)
//	p.AdvanceFrame(16)
//	v, _ := p.Value(h)
//
// # Thread Safety
//
// Processors are NOT thread-safe. A processor and its instances belong to a
// single update loop. The registry is safe to read concurrently once sealed.
package impel
