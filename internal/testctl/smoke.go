package testctl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"strings"

	"vncd/pkg/types"
)

// runSmoke drives a full admin cycle against a live vncd: health, start,
// readiness, status and stop. With cfg.Spawn it launches the server first.
func runSmoke(cfg *Config) error {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Spawn != "" {
		u, err := url.Parse(base)
		if err != nil {
			return fmt.Errorf("base url: %w", err)
		}
		defer func() { _ = killProcesses() }()
		cmd := exec.Command(cfg.Spawn, "serve", "--addr", u.Host)
		cmd.Env = append(os.Environ(), "VNCD_ADMIN_TOKEN="+cfg.Token)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("spawn %s: %w", cfg.Spawn, err)
		}
		TrackProcess(cmd)
		info("[smoke] spawned %s pid=%d on %s", cfg.Spawn, cmd.Process.Pid, u.Host)
	}

	client := &http.Client{Timeout: cfg.Timeout}
	if err := waitHTTP(base+"/healthz", http.StatusOK, cfg.Timeout); err != nil {
		return err
	}
	info("[smoke] %s is healthy", base)

	var started types.StartResponse
	if err := adminCall(client, cfg, base+"/_admin/vnc/start", &started); err != nil {
		return err
	}
	if !started.Running {
		return fmt.Errorf("start returned running=false")
	}
	info("[smoke] stack up: display=%s vnc_port=%d ws_port=%d already_running=%v", started.Display, started.VNCPort, started.WSPort, started.AlreadyRunning)

	if err := waitHTTP(base+"/readyz", http.StatusOK, cfg.Timeout); err != nil {
		return err
	}

	var st types.StatusResponse
	if err := getJSON(client, base+"/status", &st); err != nil {
		return err
	}
	for _, p := range st.Processes {
		info("[smoke] %-8s %-10s pid=%d", p.Role, p.State, p.PID)
	}

	var stopped types.StopResponse
	if err := adminCall(client, cfg, base+"/_admin/vnc/stop", &stopped); err != nil {
		return err
	}
	if !stopped.Stopped || stopped.Running {
		return fmt.Errorf("stop left the stack running")
	}
	info("[smoke] stack stopped; smoke passed")
	return nil
}

func adminCall(client *http.Client, cfg *Config, url string, out any) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set(cfg.AdminHeader, cfg.Token)
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	return decodeJSON(resp, url, out)
}

func getJSON(client *http.Client, url string, out any) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	return decodeJSON(resp, url, out)
}

func decodeJSON(resp *http.Response, url string, out any) error {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		var e types.ErrorResponse
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return fmt.Errorf("%s: %d %s", url, resp.StatusCode, e.Error)
		}
		return fmt.Errorf("%s: status %d", url, resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode: %w", url, err)
	}
	return nil
}
