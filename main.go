package main

import (
	"os"

	"github.com/shvtools/shvjournal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
