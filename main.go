// The main package for the pageviews executable.
package main

import (
	"github.com/JakeFAU/pageviews/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
