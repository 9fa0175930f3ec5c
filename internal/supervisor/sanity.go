package supervisor

import (
	"os/exec"

	"vncd/pkg/types"
)

// SanityCheck validates that the external programs for every stage resolve.
// It does not mutate state and is safe to call at any time.
func (s *Supervisor) SanityCheck() types.SanityReport {
	return checkPrograms(map[string]string{
		string(RoleDisplay): s.cfg.Display.Bin,
		string(RoleDesktop): s.cfg.Desktop.Bin,
		string(RoleBridge):  s.cfg.Bridge.Bin,
	})
}

func checkPrograms(bins map[string]string) types.SanityReport {
	r := types.SanityReport{OK: true, Programs: make(map[string]string, len(bins))}
	for _, role := range coreRoles {
		bin, ok := bins[string(role)]
		if !ok {
			continue
		}
		path, err := exec.LookPath(bin)
		if err != nil || bin == "" {
			r.OK = false
			r.Missing = append(r.Missing, string(role)+": "+bin)
			continue
		}
		r.Programs[string(role)] = path
	}
	return r
}
