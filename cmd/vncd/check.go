package main

import (
	"encoding/json"
	"errors"
	"io"
	"os/exec"

	"github.com/rs/zerolog"

	"vncd/internal/common/fsutil"
	"vncd/internal/config"
	"vncd/internal/supervisor"
	"vncd/pkg/types"
)

type checkReport struct {
	types.SanityReport
	PasswordSet bool     `json:"password_set"`
	AdminToken  bool     `json:"admin_token_set"`
	Warnings    []string `json:"warnings,omitempty"`
}

// runCheck prints a JSON report and fails when a required program is missing.
func runCheck(cfg config.Config, out io.Writer) error {
	sup := supervisor.New(supervisorConfig(cfg, zerolog.Nop()))
	r := checkReport{
		SanityReport: sup.SanityCheck(),
		PasswordSet:  cfg.Desktop.Password != "",
		AdminToken:   cfg.AdminToken != "",
	}
	if !r.PasswordSet {
		r.Warnings = append(r.Warnings, "VNC_PASSWORD is not set; start requests will fail")
	}
	if !r.AdminToken {
		r.Warnings = append(r.Warnings, "admin token is not set; admin endpoints are locked")
	}
	if cfg.ViewerDir != "" && !fsutil.PathExists(cfg.ViewerDir) {
		r.Warnings = append(r.Warnings, "viewer dir "+cfg.ViewerDir+" does not exist")
	}
	for _, s := range cfg.Sidecars {
		if s.Bin != "" && !programResolves(s.Bin) {
			r.Warnings = append(r.Warnings, "sidecar "+s.Name+": "+s.Bin+" not found")
		}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return err
	}
	if !r.OK {
		return exitError{code: 1, err: errors.New("required programs missing")}
	}
	return nil
}

func programResolves(bin string) bool {
	_, err := exec.LookPath(bin)
	return err == nil
}
