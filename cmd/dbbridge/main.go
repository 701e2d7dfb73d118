// Package main provides the dbbridge CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/dbbridge/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
