package testctl

import (
	"os"
	"runtime"
	"strings"
)

// Distro families with a known package set.
const (
	familyArch   = "arch"
	familyDebian = "debian"
	familyFedora = "fedora"
)

// hostDistroFamily reads /etc/os-release; empty when unknown or not Linux.
func hostDistroFamily() string {
	if runtime.GOOS != "linux" {
		return ""
	}
	data, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return ""
	}
	return distroFamily(string(data))
}

// distroFamily maps ID/ID_LIKE lines of an os-release file onto a family.
func distroFamily(osRelease string) string {
	var ids []string
	for _, line := range strings.Split(osRelease, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if v, ok := strings.CutPrefix(line, "ID="); ok {
			ids = append(ids, strings.Fields(strings.ToLower(strings.Trim(v, `"'`)))...)
		}
		if v, ok := strings.CutPrefix(line, "ID_LIKE="); ok {
			ids = append(ids, strings.Fields(strings.ToLower(strings.Trim(v, `"'`)))...)
		}
	}
	for _, id := range ids {
		switch id {
		case "arch", "manjaro", "endeavouros":
			return familyArch
		case "debian", "ubuntu":
			return familyDebian
		case "fedora", "rhel", "centos":
			return familyFedora
		}
	}
	return ""
}
