package main

import (
	"os"

	"vncd/internal/testctl"
)

// testctl groups the developer workflows for vncd: host package installs,
// test suites, port checks and a smoke run against a live server.
func main() { os.Exit(testctl.Main()) }
