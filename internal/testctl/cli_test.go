package testctl

import (
	"errors"
	"testing"
)

// withCLIStubs swaps the fn* indirections and restores them on cleanup.
func withCLIStubs(t *testing.T, stubs func()) {
	t.Helper()
	oldInstallGo, oldInstallHost, oldVerify := fnInstallGo, fnInstallHost, fnVerifyHost
	oldGo, oldBB := fnRunGoTests, fnRunBlackboxTests
	oldPorts, oldSmoke := fnEnsurePorts, fnRunSmoke
	stubs()
	t.Cleanup(func() {
		fnInstallGo, fnInstallHost, fnVerifyHost = oldInstallGo, oldInstallHost, oldVerify
		fnRunGoTests, fnRunBlackboxTests = oldGo, oldBB
		fnEnsurePorts, fnRunSmoke = oldPorts, oldSmoke
	})
}

func TestMainWithArgs_NoArgs_Exit2(t *testing.T) {
	if code := MainWithArgs([]string{}); code != 2 {
		t.Fatalf("expected exit code 2 for no args, got %d", code)
	}
}

func TestMainWithArgs_UnknownCommand_Exit1(t *testing.T) {
	if code := MainWithArgs([]string{"wat"}); code != 1 {
		t.Fatalf("expected exit code 1 for unknown command, got %d", code)
	}
}

func TestMainWithArgs_Help_Exit0(t *testing.T) {
	if code := MainWithArgs([]string{"--help"}); code != 0 {
		t.Fatalf("help expected 0, got %d", code)
	}
}

func TestInstallAll_Order(t *testing.T) {
	var calls []string
	withCLIStubs(t, func() {
		fnInstallGo = func() error { calls = append(calls, "go"); return nil }
		fnInstallHost = func() error { calls = append(calls, "host"); return nil }
	})
	if code := MainWithArgs([]string{"install", "all"}); code != 0 {
		t.Fatalf("install all exit %d", code)
	}
	if len(calls) != 2 || calls[0] != "go" || calls[1] != "host" {
		t.Fatalf("unexpected call order %v", calls)
	}
}

func TestInstall_RequiresSubcommand(t *testing.T) {
	if code := MainWithArgs([]string{"install"}); code != 1 {
		t.Fatalf("expected 1, got %d", code)
	}
}

func TestTestAll_StopsOnFirstFailure(t *testing.T) {
	bbRan := false
	withCLIStubs(t, func() {
		fnRunGoTests = func() error { return errors.New("unit failed") }
		fnRunBlackboxTests = func() error { bbRan = true; return nil }
	})
	if code := MainWithArgs([]string{"test", "all"}); code != 1 {
		t.Fatalf("expected 1, got %d", code)
	}
	if bbRan {
		t.Fatal("black-box suite must not run after a unit failure")
	}
}

func TestTestGoAndBlackbox(t *testing.T) {
	var ran []string
	withCLIStubs(t, func() {
		fnRunGoTests = func() error { ran = append(ran, "go"); return nil }
		fnRunBlackboxTests = func() error { ran = append(ran, "bb"); return nil }
	})
	for _, args := range [][]string{{"test", "go"}, {"test", "blackbox"}, {"test", "all"}} {
		if code := MainWithArgs(args); code != 0 {
			t.Fatalf("%v exit %d", args, code)
		}
	}
	if len(ran) != 4 {
		t.Fatalf("unexpected runs %v", ran)
	}
}

func TestVerify_PropagatesError(t *testing.T) {
	withCLIStubs(t, func() {
		fnVerifyHost = func() error { return errors.New("missing Xvfb") }
	})
	if code := MainWithArgs([]string{"verify"}); code != 1 {
		t.Fatalf("expected 1, got %d", code)
	}
}

func TestPortsCheck_FlagsPassed(t *testing.T) {
	var gotPorts []int
	var gotForce bool
	withCLIStubs(t, func() {
		fnEnsurePorts = func(ports []int, force bool) error { gotPorts, gotForce = ports, force; return nil }
	})
	if code := MainWithArgs([]string{"ports", "check", "--port", "7001", "--port", "7002", "--force"}); code != 0 {
		t.Fatalf("exit %d", code)
	}
	if len(gotPorts) != 2 || gotPorts[0] != 7001 || gotPorts[1] != 7002 || !gotForce {
		t.Fatalf("ports=%v force=%v", gotPorts, gotForce)
	}
}

func TestSmoke_RequiresToken(t *testing.T) {
	t.Setenv("VNCD_ADMIN_TOKEN", "")
	called := false
	withCLIStubs(t, func() {
		fnRunSmoke = func(*Config) error { called = true; return nil }
	})
	if code := MainWithArgs([]string{"smoke"}); code != 1 || called {
		t.Fatalf("expected refusal without token, code=%d called=%v", code, called)
	}
}

func TestSmoke_FlagsAndLogLevel(t *testing.T) {
	withCLIStubs(t, func() {
		fnRunSmoke = func(c *Config) error {
			if c.BaseURL != "http://127.0.0.1:9999" || c.Token != "t0ken" || c.LogLvl != "debug" {
				t.Fatalf("unexpected config %+v", c)
			}
			if c.AdminHeader != "X-Admin-Token" {
				t.Fatalf("admin header default %q", c.AdminHeader)
			}
			return nil
		}
	})
	t.Setenv("VNCD_ADMIN_HEADER", "")
	args := []string{"--log-level", "debug", "smoke", "--base", "http://127.0.0.1:9999", "--token", "t0ken"}
	if code := MainWithArgs(args); code != 0 {
		t.Fatalf("exit %d", code)
	}
	SetLogLevel("info")
}
