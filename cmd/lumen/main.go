// Command lumen is the photo index CLI. It talks to the lumend daemon
// over a Unix socket, starting it on demand.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
