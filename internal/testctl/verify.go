package testctl

import (
	"fmt"
	"os/exec"
	"strings"
)

// hostPrograms are the external programs vncd launches, keyed by role.
var hostPrograms = []struct{ role, bin string }{
	{"display", envStr("VNC_DISPLAY_BIN", "Xvfb")},
	{"desktop", envStr("VNC_SERVER_BIN", "x11vnc")},
	{"bridge", envStr("VNC_BRIDGE_BIN", "websockify")},
}

// missingHostPrograms returns "role: bin" for every program not on PATH.
func missingHostPrograms() []string {
	var missing []string
	for _, p := range hostPrograms {
		if _, err := exec.LookPath(p.bin); err != nil {
			missing = append(missing, p.role+": "+p.bin)
			continue
		}
		debug("[verify] %s found (%s)", p.bin, p.role)
	}
	return missing
}

// verifyHost checks that Xvfb, x11vnc and websockify are installed.
func verifyHost() error {
	if missing := missingHostPrograms(); len(missing) > 0 {
		return fmt.Errorf("missing host programs: %s (try: testctl install host)", strings.Join(missing, ", "))
	}
	info("[verify] host programs present")
	return nil
}
