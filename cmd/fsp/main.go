// fsp is the flowspace CLI for managing parameterized data spaces and
// their workflows.
package main

import (
	"os"

	"github.com/mhutchins/flowspace/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
