package supervisor

import (
	"net"
	"path/filepath"
	"strconv"
	"strings"
)

// displaySpec builds: <bin> <display> -screen 0 <WxH>x<depth> -ac -nolisten tcp
func (c Config) displaySpec() LaunchSpec {
	args := []string{
		c.Display.ID,
		"-screen", "0", c.Display.Resolution + "x" + strconv.Itoa(c.Display.Depth),
		"-ac",
		"-nolisten", "tcp",
	}
	args = append(args, c.Display.ExtraArgs...)
	return LaunchSpec{Program: c.Display.Bin, Args: args, Env: c.Display.Env}
}

// desktopSpec builds: <bin> -display <display> -rfbport <port> -passwd <secret> [extra...]
func (c Config) desktopSpec() LaunchSpec {
	args := []string{
		"-display", c.Display.ID,
		"-rfbport", strconv.Itoa(c.Desktop.Port),
		"-passwd", c.Desktop.Password,
	}
	args = append(args, c.Desktop.ExtraArgs...)
	env := append([]string{"DISPLAY=" + c.Display.ID}, c.Desktop.Env...)
	return LaunchSpec{Program: c.Desktop.Bin, Args: args, Env: env, Secrets: []string{c.Desktop.Password}}
}

// bridgeSpec builds: <bin> <ws port> <loopback>:<vnc port> [extra...]
func (c Config) bridgeSpec() LaunchSpec {
	args := []string{
		strconv.Itoa(c.Bridge.Port),
		c.desktopAddr(),
	}
	args = append(args, c.Bridge.ExtraArgs...)
	return LaunchSpec{Program: c.Bridge.Bin, Args: args, Env: c.Bridge.Env}
}

func (c Config) sidecarSpec(s SidecarSpec) LaunchSpec {
	env := append([]string{"DISPLAY=" + c.Display.ID}, s.Env...)
	return LaunchSpec{Program: s.Bin, Args: append([]string(nil), s.Args...), Env: env}
}

func (c Config) desktopAddr() string {
	return net.JoinHostPort(c.Loopback, strconv.Itoa(c.Desktop.Port))
}

func (c Config) bridgeAddr() string {
	return net.JoinHostPort(c.Loopback, strconv.Itoa(c.Bridge.Port))
}

// displaySocket returns the unix socket an X server creates for the display,
// e.g. ":99" or ":99.0" -> <dir>/X99.
func (c Config) displaySocket() string {
	n := strings.TrimPrefix(c.Display.ID, ":")
	if i := strings.IndexByte(n, '.'); i >= 0 {
		n = n[:i]
	}
	return filepath.Join(c.Display.SocketDir, "X"+n)
}

// commandLine renders spec for logs with secrets replaced.
func (s LaunchSpec) commandLine() string {
	parts := make([]string, 0, len(s.Args)+1)
	parts = append(parts, s.Program)
	for _, a := range s.Args {
		for _, sec := range s.Secrets {
			if sec != "" && strings.Contains(a, sec) {
				a = strings.ReplaceAll(a, sec, "***")
			}
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}
