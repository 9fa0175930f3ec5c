package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

type cliOptions struct {
	configPath  string
	logLevel    string
	logFormat   string
	addr        string
	corsOrigins string
	startAtBoot bool

	stdout io.Writer
	stderr io.Writer
}

// exitError carries a specific exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e exitError) Error() string { return e.err.Error() }

// mainWithArgs runs the CLI and returns the process exit code.
func mainWithArgs(args []string) int {
	opts := &cliOptions{stdout: os.Stdout, stderr: os.Stderr}
	root := buildRootCmd(opts)
	root.SetArgs(args)
	root.SetOut(opts.stdout)
	root.SetErr(opts.stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(opts.stderr, "error:", err)
		var ee exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		return 1
	}
	return 0
}

// buildRootCmd constructs the command tree.
func buildRootCmd(opts *cliOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "vncd",
		Short:         "Supervise a virtual display, VNC server and websocket bridge behind one HTTP port",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", os.Getenv("VNCD_CONFIG"), "Config file (.yaml, .json, .toml); defaults VNCD_CONFIG")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug|info|warn|error (overrides config)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format: json|console (overrides config)")

	serve := &cobra.Command{
		Use:     "serve",
		Short:   "Run the HTTP server and tunnel",
		Example: "  VNC_PASSWORD=s3cret VNCD_ADMIN_TOKEN=t0ken vncd serve",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return exitError{code: 2, err: err}
			}
			return runServe(cmd.Context(), cfg, opts)
		},
	}
	serve.Flags().StringVar(&opts.addr, "addr", "", "HTTP listen address, e.g. :8080 (overrides config and PORT)")
	serve.Flags().StringVar(&opts.corsOrigins, "cors-origins", "", "Comma-separated CORS origins; enables CORS when set")
	serve.Flags().BoolVar(&opts.startAtBoot, "start", false, "Start the stack at boot instead of on first tunnel connect")
	root.AddCommand(serve)

	check := &cobra.Command{
		Use:   "check",
		Short: "Validate configuration and verify external programs are installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return exitError{code: 2, err: err}
			}
			return runCheck(cfg, cmd.OutOrStdout())
		},
	}
	root.AddCommand(check)

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "vncd", version)
		},
	})
	return root
}
