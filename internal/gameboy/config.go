package gameboy

// Config contains settings that affect emulation behavior but not its
// semantics: whether to trace executed instructions, and whether the driver
// loop should throttle itself to real time (headless conformance runs want
// to run flat out).
type Config struct {
	Trace    bool
	LimitFPS bool
}
