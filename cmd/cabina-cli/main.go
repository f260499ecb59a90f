// Command cabina-cli analyzes recordings offline and replays capture
// sessions without the HTTP server.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
