package main

import (
	"os"

	"github.com/kjaganathan/adapt/cmd/adapt/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
