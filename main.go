// The main package for the summary-relay executable.
package main

import (
	"github.com/JakeFAU/summary-relay/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
