package main

import (
	"os"

	"github.com/marginhq/margin/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
