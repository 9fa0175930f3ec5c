package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errb bytes.Buffer
	opts := &cliOptions{stdout: &out, stderr: &errb}
	root := buildRootCmd(opts)
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errb)
	code := 0
	if err := root.Execute(); err != nil {
		code = 1
		if ee, ok := err.(exitError); ok {
			code = ee.code
		}
	}
	return code, out.String(), errb.String()
}

func TestVersionCommand(t *testing.T) {
	code, out, _ := runCLI(t, "version")
	if code != 0 || !strings.HasPrefix(out, "vncd ") {
		t.Fatalf("code=%d out=%q", code, out)
	}
}

func TestUnknownCommand(t *testing.T) {
	if code := mainWithArgs([]string{"wat"}); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
}

// fakeBins creates executable stubs named like the real programs and puts
// them first on PATH.
func fakeBins(t *testing.T, names ...string) {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := os.WriteFile(p, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	t.Setenv("PATH", dir)
}

func TestCheckAllProgramsPresent(t *testing.T) {
	fakeBins(t, "Xvfb", "x11vnc", "websockify")
	t.Setenv("VNC_PASSWORD", "s3cret")
	t.Setenv("VNCD_ADMIN_TOKEN", "t0ken")
	unsetenv(t, "PORT")

	code, out, _ := runCLI(t, "check", "--config", "")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, out)
	}
	var r checkReport
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("json: %v (%q)", err, out)
	}
	if !r.OK || !r.PasswordSet || !r.AdminToken || len(r.Warnings) != 0 {
		t.Fatalf("unexpected report: %+v", r)
	}
}

func TestCheckMissingProgram(t *testing.T) {
	fakeBins(t, "Xvfb", "x11vnc")
	t.Setenv("VNC_PASSWORD", "")
	t.Setenv("VNCD_ADMIN_TOKEN", "")
	unsetenv(t, "PORT")

	code, out, _ := runCLI(t, "check", "--config", "")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	var r checkReport
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("json: %v (%q)", err, out)
	}
	if r.OK || len(r.Missing) != 1 || !strings.HasPrefix(r.Missing[0], "bridge") {
		t.Fatalf("unexpected report: %+v", r)
	}
	if len(r.Warnings) != 2 {
		t.Fatalf("expected password and admin warnings, got %v", r.Warnings)
	}
}

func TestCheckInvalidConfigExit2(t *testing.T) {
	unsetenv(t, "PORT")
	t.Setenv("VNC_DISPLAY", "99")
	code, _, _ := runCLI(t, "check", "--config", "")
	if code != 2 {
		t.Fatalf("expected exit 2 for invalid config, got %d", code)
	}
}
