// Package main implements the pgfixture command, which resets and migrates
// PostgreSQL test databases outside of go test.
package main

import (
	"fmt"
	"os"

	"github.com/phrazzld/pgfixture/internal/cli"
)

// Set by the linker at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersion(version, commit, date)
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
