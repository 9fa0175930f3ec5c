package testctl

import (
	"context"
)

// Tests
func runGoTests() error {
	info("==== Run Go unit tests ====")
	return runCmdStreaming(context.Background(), "go", "test", "-short", "./...")
}

// runBlackboxTests builds vncd and the fake stage programs inside the suite.
func runBlackboxTests() error {
	info("==== Run black-box tests ====")
	return RunCmd(context.Background(), Cmd{
		Path:   "go",
		Args:   []string{"test", "-count=1", "-v", "./tests/blackbox/..."},
		Env:    map[string]string{"CGO_ENABLED": "0"},
		Stream: true,
	})
}
