// Package runner executes the external Nx task runner inside the workspace
// and captures its exit code.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/kubev2v/e2e-runner/internal/util"
)

// Runner invokes targets inside a downloaded test workspace.
type Runner struct {
	WorkspaceDir string
}

// RunTarget runs `npx nx run <target>` with the given passthrough arguments
// and extra environment. The returned int is the subprocess exit code; the
// error is non-nil only when the process could not be executed at all, so a
// failing test run is (code>0, nil) and must not abort the report step.
func (r *Runner) RunTarget(ctx context.Context, target string, extraArgs []string, extraEnv map[string]string) (int, error) {
	args := []string{"nx", "run", target}
	if len(extraArgs) > 0 {
		args = append(args, "--")
		args = append(args, extraArgs...)
	}

	color.Cyan("==> Running target %s", target)
	zap.S().Infow("running tests", "target", target, "extra_args", extraArgs)

	return Exec(ctx, r.WorkspaceDir, mergeEnv(extraEnv), "npx", args...)
}

// Exec runs a command, streaming its output, and returns its exit code.
// Non-zero exits are not errors: they are the result being captured.
func Exec(ctx context.Context, dir string, env []string, name string, args ...string) (int, error) {
	err := util.RunStreaming(ctx, dir, env, name, args...)
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			// Killed by a signal.
			return 1, nil
		}
		return code, nil
	}
	return 0, fmt.Errorf("failed to run %s: %w", name, err)
}

// mergeEnv layers extra variables over the process environment. A nil map
// means "inherit as-is".
func mergeEnv(extra map[string]string) []string {
	if len(extra) == 0 {
		return nil
	}
	env := os.Environ()
	for k, v := range extra {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}
