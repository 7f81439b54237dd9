// geonetd is the reference binary wiring config.Config, the zap-backed
// logger, and forwarding.Engine into a runnable process. It runs the
// engine against an in-memory radio.Mock rather than a live peripheral:
// opening and configuring a real 802.11p/PC5/Ethernet adapter is an
// external collaborator's responsibility (§6 Non-goals), so this binary
// is a bench/demo harness an embedder replaces the device wiring of,
// not a production daemon.
package main

import (
	"os"

	"github.com/veloce-go/geonet/cmd/geonetd/internal/daemon"
)

func main() {
	os.Exit(daemon.Run(os.Args[1:]))
}
