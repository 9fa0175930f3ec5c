package testctl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

// Unified command runner
type Cmd struct {
	Path   string
	Args   []string
	Env    map[string]string // additional env vars
	Dir    string            // working directory
	Stream bool              // if true, stream stdout/err line by line to Out
	Out    io.Writer         // defaults to os.Stdout
}

func RunCmd(ctx context.Context, c Cmd) error {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	if c.Dir != "" {
		cmd.Dir = c.Dir
	}
	// inherit environment
	cmd.Env = os.Environ()
	for k, v := range c.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}
	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	debug("[exec] %s %v", c.Path, c.Args)
	if !c.Stream {
		cmd.Stdout = out
		cmd.Stderr = os.Stderr
		return cmd.Run()
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); stream(out, &mu, stdout) }()
	go func() { defer wg.Done(); stream(out, &mu, stderr) }()
	// Pipes must be drained before Wait closes them.
	wg.Wait()
	return cmd.Wait()
}

func runCmdVerbose(ctx context.Context, name string, args ...string) error {
	return RunCmd(ctx, Cmd{Path: name, Args: args})
}

func runCmdStreaming(ctx context.Context, name string, args ...string) error {
	return RunCmd(ctx, Cmd{Path: name, Args: args, Stream: true})
}

func stream(w io.Writer, mu *sync.Mutex, r io.Reader) {
	s := bufio.NewScanner(r)
	for s.Scan() {
		mu.Lock()
		fmt.Fprintln(w, s.Text())
		mu.Unlock()
	}
}
