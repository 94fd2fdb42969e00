// Package main is the entry point for the GPAI CLI.
package main

import (
	"gpai/cli/cmd"
)

func main() {
	cmd.Execute()
}
