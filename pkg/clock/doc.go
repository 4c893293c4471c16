// Package clock abstracts the engine's time source for deterministic testing.
//
// The engine never calls time.Now directly; it reads the Clock it was
// configured with. Production code uses SystemClock. Tests use ManualClock
// and advance it explicitly, so time-dependent behavior is reproducible
// without sleeps.
//
// Example:
//
//	// Production
//	e := engine.New(snapshot.Initial(time.Now()))
//
//	// Test
//	clk := clock.NewManualClock(time.Unix(0, 0))
//	cfg := engine.DefaultConfig()
//	cfg.Clock = clk
//	e := engine.NewWithConfig(snapshot.Initial(clk.Now()), cfg)
//	clk.Advance(time.Second)
package clock
