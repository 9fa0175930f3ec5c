package testctl

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

func installGo() error {
	info("Downloading Go modules...")
	return runCmdVerbose(context.Background(), "go", "mod", "download")
}

// hostInstallCommands returns the package manager invocations installing
// the display server, VNC server and websocket bridge for a distro family.
func hostInstallCommands(family string) ([][]string, error) {
	switch family {
	case familyDebian:
		return [][]string{
			{"apt-get", "update"},
			{"apt-get", "install", "-y", "--no-install-recommends", "xvfb", "x11vnc", "websockify"},
		}, nil
	case familyArch:
		return [][]string{
			{"pacman", "-S", "--needed", "--noconfirm", "xorg-server-xvfb", "x11vnc", "python-websockify"},
		}, nil
	case familyFedora:
		return [][]string{
			{"dnf", "install", "-y", "xorg-x11-server-Xvfb", "x11vnc", "python3-websockify"},
		}, nil
	}
	return nil, fmt.Errorf("host installer supports Debian, Arch and Fedora families; on %s please install Xvfb, x11vnc and websockify manually", runtime.GOOS)
}

// installHost installs the host programs unless they already resolve.
func installHost() error {
	if len(missingHostPrograms()) == 0 {
		info("[host] Xvfb, x11vnc and websockify already installed")
		return nil
	}
	cmds, err := hostInstallCommands(hostDistroFamily())
	if err != nil {
		return err
	}
	info("[host] Installing display, VNC and bridge packages...")
	for _, c := range cmds {
		if err := runMaybeSudo(c[0], c[1:]...); err != nil {
			return fmt.Errorf("%s failed: %w", c[0], err)
		}
	}
	return verifyHost()
}

// runMaybeSudo tries sudo if not root, else runs directly.
func runMaybeSudo(name string, args ...string) error {
	if os.Geteuid() == 0 {
		return runCmdVerbose(context.Background(), name, args...)
	}
	if _, err := exec.LookPath("sudo"); err == nil {
		return runCmdVerbose(context.Background(), "sudo", append([]string{name}, args...)...)
	}
	return runCmdVerbose(context.Background(), name, args...)
}
