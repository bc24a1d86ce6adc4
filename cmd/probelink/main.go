// Command probelink is a thin client for the probelink boundary
// library. It loads the shared library at runtime, so the binary
// builds without cgo and drives whichever library build sits next to
// it.
package main

import "github.com/embedkit/probelink/cmd/probelink/cli"

func main() {
	cli.Execute()
}
