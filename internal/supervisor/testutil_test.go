package supervisor

import (
	"context"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

var (
	fakeBinOnce sync.Once
	fakeBinPath string
	fakeBinErr  error
	fakeBinOut  []byte
)

// buildTestBinary builds the fake stage program used for subprocess tests once
// per test run and returns its path.
func buildTestBinary(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("short mode")
	}
	fakeBinOnce.Do(func() {
		dir, err := os.MkdirTemp("", "vncd-fake-stage")
		if err != nil {
			fakeBinErr = err
			return
		}
		fakeBinPath = filepath.Join(dir, "fake_stage")
		cmd := exec.Command("go", "build", "-o", fakeBinPath, "./testdata/fake_stage.go")
		cmd.Dir = "." // package dir internal/supervisor
		cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
		fakeBinOut, fakeBinErr = cmd.CombinedOutput()
	})
	if fakeBinErr != nil {
		t.Fatalf("build fake stage: %v: %s", fakeBinErr, string(fakeBinOut))
	}
	return fakeBinPath
}

func pickFreePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// testConfig returns a Config whose three stages run the fake binary on free
// ports, with the display socket in a temp dir.
func testConfig(t *testing.T, bin string) Config {
	t.Helper()
	x11 := t.TempDir()
	desktopPort := pickFreePort(t)
	bridgePort := pickFreePort(t)
	for bridgePort == desktopPort {
		bridgePort = pickFreePort(t)
	}
	return Config{
		Display: DisplaySpec{
			Bin:        bin,
			ID:         ":42",
			Resolution: "640x480",
			Depth:      24,
			Env:        []string{"FAKE_X11_DIR=" + x11},
			SocketDir:  x11,
		},
		Desktop:      DesktopSpec{Bin: bin, Port: desktopPort, Password: "s3cret"},
		Bridge:       BridgeSpec{Bin: bin, Port: bridgePort},
		ReadyTimeout: 5 * time.Second,
		StopTimeout:  2 * time.Second,
		Logger:       zerolog.Nop(),
	}
}

// newTestSupervisor builds a Supervisor with a MemoryPublisher and registers
// a cleanup that stops whatever is still running.
func newTestSupervisor(t *testing.T, cfg Config) (*Supervisor, *MemoryPublisher) {
	t.Helper()
	pub := NewMemoryPublisher()
	cfg.Publisher = pub
	s := New(cfg)
	t.Cleanup(func() { s.Stop(context.Background()) })
	return s, pub
}

// testCtx returns a context with a generous timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	t.Cleanup(cancel)
	return c
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return syscall.Kill(pid, 0) == nil
}

func pidsByRole(s *Supervisor) map[Role]int {
	out := map[Role]int{}
	for _, p := range s.Processes() {
		out[p.Role] = p.PID
	}
	return out
}
