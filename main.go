// Package main is the entry point for the marketplace CLI.
package main

import (
	"marketplace/cli/cmd"
)

func main() {
	cmd.Execute()
}
