// The main package for the rider-enricher executable.
package main

import (
	"github.com/JakeFAU/rider-enricher/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
