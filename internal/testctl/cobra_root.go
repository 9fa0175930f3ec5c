package testctl

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// buildRootCmdWith constructs the command tree wired to the fn* actions.
func buildRootCmdWith(cfg *Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "testctl",
		Short:         "Dev and test utilities for vncd",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfg.LogLvl, "log-level", cfg.LogLvl, "Log level: debug|info|warn|error (defaults TESTCTL_LOG_LEVEL or info)")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		SetLogLevel(cfg.LogLvl)
	}

	// install group
	installCmd := &cobra.Command{Use: "install", Short: "Install dependencies/tools", RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("install requires a subcommand: all|go|host")
	}}
	installAll := &cobra.Command{Use: "all", Short: "Download Go modules and install host programs", RunE: func(cmd *cobra.Command, args []string) error {
		if err := fnInstallGo(); err != nil {
			return err
		}
		return fnInstallHost()
	}}
	installGoCmd := &cobra.Command{Use: "go", Short: "Download Go modules", RunE: func(cmd *cobra.Command, args []string) error { return fnInstallGo() }}
	installHostCmd := &cobra.Command{Use: "host", Short: "Install Xvfb, x11vnc and websockify with the system package manager", Example: "  testctl install host", RunE: func(cmd *cobra.Command, args []string) error { return fnInstallHost() }}
	installCmd.AddCommand(installAll, installGoCmd, installHostCmd)
	root.AddCommand(installCmd)

	root.AddCommand(&cobra.Command{Use: "verify", Short: "Check that the host programs vncd launches are on PATH", RunE: func(cmd *cobra.Command, args []string) error { return fnVerifyHost() }})

	// test group
	testCmd := &cobra.Command{Use: "test", Short: "Run tests", RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("test requires a subcommand: go|blackbox|all")
	}}
	testGo := &cobra.Command{Use: "go", Short: "Run Go unit tests (-short)", RunE: func(cmd *cobra.Command, args []string) error { return fnRunGoTests() }}
	testBB := &cobra.Command{Use: "blackbox", Short: "Build vncd and run the black-box suite", RunE: func(cmd *cobra.Command, args []string) error { return fnRunBlackboxTests() }}
	testAll := &cobra.Command{Use: "all", Short: "Unit tests, then black-box", RunE: func(cmd *cobra.Command, args []string) error {
		if err := fnRunGoTests(); err != nil {
			return err
		}
		return fnRunBlackboxTests()
	}}
	testCmd.AddCommand(testGo, testBB, testAll)
	root.AddCommand(testCmd)

	// ports
	portsCmd := &cobra.Command{Use: "ports", Short: "Port utilities", RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("ports requires a subcommand: check")
	}}
	portsCheck := &cobra.Command{Use: "check", Short: "Ensure the HTTP, VNC and bridge ports are free", RunE: func(cmd *cobra.Command, args []string) error {
		return fnEnsurePorts(cfg.Ports, cfg.Force)
	}}
	portsCheck.Flags().IntSliceVar(&cfg.Ports, "port", cfg.Ports, "Ports to check (repeatable)")
	portsCheck.Flags().BoolVar(&cfg.Force, "force", cfg.Force, "Kill listeners on busy ports")
	portsCmd.AddCommand(portsCheck)
	root.AddCommand(portsCmd)

	smoke := &cobra.Command{
		Use:     "smoke",
		Short:   "Start, probe and stop the stack through a live vncd",
		Example: "  VNCD_ADMIN_TOKEN=t0ken testctl smoke --base http://127.0.0.1:8080\n  testctl smoke --spawn ./bin/vncd --token t0ken",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Token == "" {
				return fmt.Errorf("smoke needs an admin token (--token or VNCD_ADMIN_TOKEN)")
			}
			return fnRunSmoke(cfg)
		},
	}
	smoke.Flags().StringVar(&cfg.BaseURL, "base", cfg.BaseURL, "vncd base URL (defaults VNCD_BASE_URL)")
	smoke.Flags().StringVar(&cfg.Token, "token", cfg.Token, "Admin token (defaults VNCD_ADMIN_TOKEN)")
	smoke.Flags().StringVar(&cfg.AdminHeader, "admin-header", cfg.AdminHeader, "Admin token header")
	smoke.Flags().StringVar(&cfg.Spawn, "spawn", "", "Path to a vncd binary to start for the run")
	smoke.Flags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Wait for health and readiness")
	root.AddCommand(smoke)

	// completion command
	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(os.Stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(os.Stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(os.Stdout, true) }})
	root.AddCommand(completionCmd)

	return root
}
