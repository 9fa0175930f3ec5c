package testctl

import (
	"fmt"
	"os"
	"time"
)

// Config carries the values shared by every subcommand.
type Config struct {
	LogLvl string

	// BaseURL is the vncd server smoke runs against.
	BaseURL string
	// Token is sent in AdminHeader on admin calls.
	Token       string
	AdminHeader string
	// Spawn, when set, is a vncd binary started for the smoke run.
	Spawn   string
	Timeout time.Duration

	// Ports checked by "ports check"; Force kills listeners.
	Ports []int
	Force bool
}

func defaultConfig() *Config {
	return &Config{
		LogLvl:      envStr("TESTCTL_LOG_LEVEL", "info"),
		BaseURL:     envStr("VNCD_BASE_URL", "http://127.0.0.1:8080"),
		Token:       os.Getenv("VNCD_ADMIN_TOKEN"),
		AdminHeader: envStr("VNCD_ADMIN_HEADER", "X-Admin-Token"),
		Timeout:     time.Duration(envInt("TESTCTL_TIMEOUT_SECONDS", 20)) * time.Second,
		Ports:       []int{envInt("PORT", 8080), envInt("VNC_PORT", 5900), envInt("VNC_WS_PORT", 6080)},
		Force:       envBool("TESTCTL_FORCE", false),
	}
}

// MainWithArgs is a testable variant of Main that accepts args explicitly.
// It returns 0 on success, 2 when no command was given and 1 on error.
func MainWithArgs(args []string) int {
	cfg := defaultConfig()
	root := buildRootCmdWith(cfg)
	if len(args) == 0 {
		_ = root.Usage()
		return 2
	}
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	return 0
}

// Main returns an exit code for use by cmd/testctl.
func Main() int { return MainWithArgs(os.Args[1:]) }
