// Package gblog provides the minimal structured-ish logging seam used across
// the emulation core, following thelolagemann-gomeboy's pkg/log package: a
// tiny interface backed by fmt.Printf, plus a null implementation for tests
// and for embedders that don't want core log noise.
package gblog

import "fmt"

// Logger is the logging seam the bus, CPU, and driver loop accept. Infof
// and Errorf carry rare, operator-facing events (ROM header decode,
// illegal-opcode traps before they're returned as errors); Debugf carries
// the optional per-instruction trace gameboy.Config.Trace turns on.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type stdLogger struct{}

// New returns a Logger that writes to stdout with level prefixes.
func New() Logger { return stdLogger{} }

func (stdLogger) Infof(format string, args ...interface{}) {
	fmt.Printf("[INFO]\t"+format+"\n", args...)
}

func (stdLogger) Errorf(format string, args ...interface{}) {
	fmt.Printf("[ERROR]\t"+format+"\n", args...)
}

func (stdLogger) Debugf(format string, args ...interface{}) {
	fmt.Printf("[DEBUG]\t"+format+"\n", args...)
}

type nullLogger struct{}

// NewNull returns a Logger that discards everything, for tests.
func NewNull() Logger { return nullLogger{} }

func (nullLogger) Infof(string, ...interface{})  {}
func (nullLogger) Errorf(string, ...interface{}) {}
func (nullLogger) Debugf(string, ...interface{}) {}
