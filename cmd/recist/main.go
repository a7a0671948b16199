package main

import (
	"os"

	"github.com/recist-io/recist/cmd/recist/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
