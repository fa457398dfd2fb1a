// Package main is the entry point for the murmur server and its admin tools.
package main

import (
	"os"

	"github.com/aussiebroadwan/murmur/internal/auth/app"
)

func main() {
	cmd := NewRootCmd()
	cmd.Version = app.BuildVersion

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
