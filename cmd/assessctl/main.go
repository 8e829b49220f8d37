package main

import (
	"os"

	"github.com/gokatarajesh/assessment-engine/internal/cli"
)

func main() {
	if err := cli.NewRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
