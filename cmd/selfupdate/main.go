package main

import (
	"os"

	"github.com/flanksource/selfupdate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
