// Package main is the entry point for propeller.
package main

import (
	"os"

	"github.com/postfinance/propeller/internal/cmd"
	"github.com/postfinance/propeller/internal/pkg/logger"
)

func main() {
	root := cmd.NewRootCmd()

	err := root.Execute()
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
