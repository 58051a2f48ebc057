// Command dentalctl inspects and maintains the clinic state outside the API
// server: seeding, export and import of snapshots, stats and one-off backups.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
