package main

import (
	"os"

	"github.com/lazypower/reprise/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
