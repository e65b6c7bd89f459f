// Package main implements the jsflow CLI. It builds control flow graphs for
// JavaScript sources and removes unreachable code and unused bindings.
package main

import (
	"os"

	"github.com/l3aro/go-jsflow/cmd/jsflow/commands"
)

var version = "dev"

func main() {
	commands.RootCmd.Version = version
	commands.RootCmd.SetVersionTemplate("jsflow version {{.Version}}\n")

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
