package main

import (
	"os"

	"github.com/molvista/molvista/internal/interfaces/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
