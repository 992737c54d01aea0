// Package main is the entry point for the cryptoctl binary.
package main

import (
	"os"

	cli "crypto-dash/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
