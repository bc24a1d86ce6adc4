// Command libprobelink is the C-callable debug-probe boundary, built
// with:
//
//	go build -buildmode=c-shared -o libprobelink.so ./cmd/libprobelink
//
// Every exported function operates on one process-wide boundary
// context, mirroring the one-process-one-toolchain assumption of the
// hosts that load it. Variable-length results follow the two-phase
// buffer protocol: call with a null buffer to learn the required size
// (terminator included), then call again with a buffer of that size.
//
// The build wires the simulated runtime; hardware driver stacks plug
// in by implementing probe.Runtime and swapping the constructor here.
package main

import (
	"github.com/embedkit/probelink/internal/boundary"
	"github.com/embedkit/probelink/internal/probe/sim"
)

var ctx = boundary.New(sim.New(sim.WithCatalog()))

func main() {}
