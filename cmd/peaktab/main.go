// PeakTab - peak table processing tool
package main

import (
	"fmt"
	"os"

	"github.com/ChrisMcGann/PeakTab/cmd/peaktab/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
