package main

import (
	"os"

	"github.com/GriffinCanCode/dicthub/cmd/dicthub/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
