// Package cmd wires the CLI surface to the orchestration sequence: parse
// flags, resolve the suite, prepare the workspace and toolchain, run the
// tests, and collect the report.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kubev2v/e2e-runner/internal/config"
	"github.com/kubev2v/e2e-runner/internal/report"
	"github.com/kubev2v/e2e-runner/internal/runner"
	"github.com/kubev2v/e2e-runner/internal/suites"
	"github.com/kubev2v/e2e-runner/internal/toolchain"
	"github.com/kubev2v/e2e-runner/internal/workspace"
)

// version is set at build time via -ldflags "-X github.com/kubev2v/e2e-runner/cmd.version=...".
var version = "0.1.0"

// testExitCode is the test runner's exit code, propagated as the process's
// own. The report step never overwrites it.
var testExitCode int

// generateReport is swappable so the report failure path can be tested.
var generateReport = report.Generate

var defaultCfg = func() *config.Configuration {
	cfg, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}()

// newRootCmd builds the root command with fresh flag state and (re)binds it
// to viper. Construction per invocation keeps parsed-flag state from leaking
// between runs.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "e2e-runner [flags] [-- nx args...]",
		Short: "Download and run the external UI end-to-end test suite",
		Long: `e2e-runner downloads the UI end-to-end test workspace, provisions the
Node.js/Java/Playwright/Allure toolchain, executes the suite's Nx target,
and renders an Allure report. The process exits with the test runner's
exit code. Arguments after -- are forwarded to the Nx target verbatim.`,
		Version:      version,
		SilenceUsage: true,
		RunE:         run,
	}

	flags := cmd.Flags()
	flags.String("suite", defaultCfg.Suite, fmt.Sprintf("test suite to run (known: %v; other names run as-is)", suites.Names()))
	flags.String("tarball", defaultCfg.TarballURL, "URL of the test workspace tarball")
	flags.String("dotenv", defaultCfg.DotenvPath, "dotenv file inside the workspace to load before the run")
	flags.String("artifacts-dir", defaultCfg.ArtifactsDir, "directory receiving the Allure report and summary")
	flags.Bool("keep-tests-dir", defaultCfg.KeepWorkspace, "do not remove the workspace after the run")

	for flag, env := range map[string]string{
		"suite":          "E2E_SUITE",
		"tarball":        "E2E_TARBALL_URL",
		"dotenv":         "E2E_DOTENV",
		"artifacts-dir":  "E2E_ARTIFACTS_DIR",
		"keep-tests-dir": "E2E_KEEP_TESTS_DIR",
	} {
		if err := viper.BindPFlag(flag, flags.Lookup(flag)); err != nil {
			panic(err)
		}
		if err := viper.BindEnv(flag, env); err != nil {
			panic(err)
		}
	}
	viper.SetDefault("node-version", defaultCfg.NodeVersion)
	viper.SetDefault("allure-version", defaultCfg.AllureVersion)
	if err := viper.BindEnv("node-version", "E2E_NODE_VERSION"); err != nil {
		panic(err)
	}
	if err := viper.BindEnv("allure-version", "E2E_ALLURE_VERSION"); err != nil {
		panic(err)
	}

	return cmd
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	return runCommand(newRootCmd())
}

func runCommand(cmd *cobra.Command) int {
	testExitCode = 0
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return testExitCode
}

// configFromFlags assembles the run configuration: flag > env > default.
func configFromFlags(cmd *cobra.Command, args []string) *config.Configuration {
	cfg := &config.Configuration{
		Suite:         viper.GetString("suite"),
		TarballURL:    viper.GetString("tarball"),
		DotenvPath:    viper.GetString("dotenv"),
		ArtifactsDir:  viper.GetString("artifacts-dir"),
		KeepWorkspace: viper.GetBool("keep-tests-dir"),
		NodeVersion:   viper.GetString("node-version"),
		AllureVersion: viper.GetString("allure-version"),
	}
	if i := cmd.ArgsLenAtDash(); i >= 0 {
		cfg.ExtraArgs = args[i:]
	}
	return cfg
}

func run(cmd *cobra.Command, args []string) error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	defer logger.Sync() //nolint:errcheck

	cfg := configFromFlags(cmd, args)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	zap.S().Infow("configuration loaded", "config", cfg.DebugMap())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	suite := suites.Resolve(cfg.Suite)
	zap.S().Infow("suite resolved", "suite", suite.Name, "target", suite.Target, "results_dir", suite.ResultsDir)

	ws, err := workspace.New("", cfg.KeepWorkspace)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := ws.Cleanup(); cerr != nil {
			zap.S().Warnw("failed to clean up workspace", "dir", ws.Dir, "error", cerr)
		}
	}()

	if err := ws.Fetch(ctx, cfg.TarballURL); err != nil {
		return err
	}

	tc := &toolchain.Toolchain{NodeVersion: cfg.NodeVersion, AllureVersion: cfg.AllureVersion}
	if err := tc.Ensure(ctx, ws.Dir); err != nil {
		return err
	}

	env, err := runner.LoadDotenv(ws.Path(cfg.DotenvPath))
	if err != nil {
		return err
	}

	r := &runner.Runner{WorkspaceDir: ws.Dir}
	code, err := r.RunTarget(ctx, suite.Target, cfg.ExtraArgs, env)
	if err != nil {
		return err
	}
	zap.S().Infow("test run finished", "target", suite.Target, "exit_code", code)

	testExitCode = finishRun(ctx, ws.Path(suite.ResultsDir), cfg.ArtifactsDir, code)
	return nil
}

// finishRun renders the report artifacts. The returned code is always the
// test runner's: a missing results directory or a failed report step only
// degrades to a warning.
func finishRun(ctx context.Context, resultsDir, artifactsDir string, code int) int {
	if _, err := os.Stat(resultsDir); err != nil {
		zap.S().Warnw("results directory missing, skipping report", "dir", resultsDir)
		return code
	}
	if err := generateReport(ctx, resultsDir, artifactsDir); err != nil {
		zap.S().Warnw("report generation failed", "error", err)
	}
	return code
}
