// Package toolchain provisions the external tools the test workspace needs:
// Node.js (via nvm), a JVM for Allure, the Allure commandline, and the
// Playwright version the downloaded suite declares. Each step is an
// idempotent existence check followed by a conditional install.
package toolchain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/kubev2v/e2e-runner/internal/util"
)

// Toolchain carries the version pins for the provisioning steps.
type Toolchain struct {
	// NodeVersion is the wanted Node.js major ("20").
	NodeVersion string
	// AllureVersion is installed when the allure command is absent.
	AllureVersion string
}

// Ensure makes sure every tool is usable, installing what is missing.
// A missing JVM is fatal: Allure cannot run without it and installing a JDK
// is out of scope here.
func (t *Toolchain) Ensure(ctx context.Context, workspaceDir string) error {
	color.Cyan("==> Ensuring Node.js %s", t.NodeVersion)
	if err := t.ensureNode(ctx); err != nil {
		return err
	}

	color.Cyan("==> Checking Java")
	if err := ensureJava(); err != nil {
		return err
	}

	color.Cyan("==> Ensuring Allure commandline")
	if err := t.ensureAllure(ctx); err != nil {
		return err
	}

	color.Cyan("==> Ensuring Playwright")
	if err := ensurePlaywright(ctx, workspaceDir); err != nil {
		return err
	}

	return nil
}

func (t *Toolchain) ensureNode(ctx context.Context) error {
	want, err := strconv.Atoi(t.NodeVersion)
	if err != nil {
		return fmt.Errorf("invalid node version %q: %w", t.NodeVersion, err)
	}

	if util.CommandExists("node") {
		out, verr := util.RunOutput(ctx, "node", "--version")
		if verr == nil {
			if major, perr := ParseNodeMajor(out); perr == nil && major == want {
				zap.S().Debugw("node already present", "version", out)
				return nil
			}
		}
		zap.S().Infow("node version mismatch, installing via nvm", "have", out, "want", want)
	}

	// nvm is a shell function, not a binary, so it has to be sourced.
	script := fmt.Sprintf(
		`export NVM_DIR="${NVM_DIR:-$HOME/.nvm}"; [ -s "$NVM_DIR/nvm.sh" ] || exit 43; . "$NVM_DIR/nvm.sh" && nvm install %d && nvm alias default %d`,
		want, want)
	if err := util.RunStreaming(ctx, "", nil, "bash", "-c", script); err != nil {
		if util.ExitCode(err) == 43 {
			return fmt.Errorf("node %d is not installed and nvm was not found; install nvm or node first", want)
		}
		return fmt.Errorf("failed to install node %d via nvm: %w", want, err)
	}

	// The install happened in a child shell, so its PATH changes died with
	// it. Resolve the installed bin dir and surface it to this process;
	// every later npm/npx subprocess inherits PATH from here.
	out, err := util.RunOutput(ctx, "bash", "-c", fmt.Sprintf(
		`export NVM_DIR="${NVM_DIR:-$HOME/.nvm}"; . "$NVM_DIR/nvm.sh" >/dev/null 2>&1; nvm which %d`, want))
	if err != nil {
		return fmt.Errorf("failed to locate node %d after install: %w", want, err)
	}
	binDir, err := ParseNvmWhich(out)
	if err != nil {
		return err
	}
	util.PrependPath(binDir)
	zap.S().Infow("node installed via nvm", "bin_dir", binDir)
	return nil
}

func ensureJava() error {
	if util.CommandExists("java") {
		return nil
	}
	if home := os.Getenv("JAVA_HOME"); home != "" {
		if _, err := os.Stat(filepath.Join(home, "bin", "java")); err == nil {
			return nil
		}
	}
	return errors.New("java not found: Allure requires a JVM (install one or set JAVA_HOME)")
}

func (t *Toolchain) ensureAllure(ctx context.Context) error {
	if util.CommandExists("allure") {
		return nil
	}
	pkg := "allure-commandline"
	if t.AllureVersion != "" {
		pkg = fmt.Sprintf("allure-commandline@%s", t.AllureVersion)
	}
	if err := util.RunStreaming(ctx, "", nil, "npm", "install", "-g", pkg); err != nil {
		return fmt.Errorf("failed to install %s: %w", pkg, err)
	}
	return nil
}

// ensurePlaywright syncs the installed Playwright with the version the
// downloaded workspace pins in its package.json. Browsers are reinstalled
// only on mismatch since `playwright install` is expensive.
func ensurePlaywright(ctx context.Context, workspaceDir string) error {
	data, err := os.ReadFile(filepath.Join(workspaceDir, "package.json"))
	if err != nil {
		return fmt.Errorf("failed to read workspace package.json: %w", err)
	}
	want, err := WantedPlaywrightVersion(data)
	if err != nil {
		return err
	}

	out, verr := util.RunOutput(ctx, "npx", "--no-install", "playwright", "--version")
	if verr == nil && ParsePlaywrightVersion(out) == want {
		zap.S().Debugw("playwright already present", "version", want)
		return nil
	}

	zap.S().Infow("installing playwright", "want", want, "have", ParsePlaywrightVersion(out))
	if err := util.RunStreaming(ctx, workspaceDir, nil, "npm", "install", "--no-save",
		fmt.Sprintf("@playwright/test@%s", want)); err != nil {
		return fmt.Errorf("failed to install @playwright/test@%s: %w", want, err)
	}
	if err := util.RunStreaming(ctx, workspaceDir, nil, "npx", "playwright", "install", "--with-deps"); err != nil {
		return fmt.Errorf("failed to install playwright browsers: %w", err)
	}
	return nil
}

// ParseNodeMajor extracts the major version from `node --version` output
// ("v20.11.1" -> 20).
func ParseNodeMajor(out string) (int, error) {
	s := strings.TrimPrefix(strings.TrimSpace(out), "v")
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	major, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("cannot parse node version from %q", out)
	}
	return major, nil
}

// ParseNvmWhich extracts the bin directory from `nvm which` output. nvm may
// print its own chatter first; the resolved node path is the last line.
func ParseNvmWhich(out string) (string, error) {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if !filepath.IsAbs(last) || filepath.Base(last) != "node" {
		return "", fmt.Errorf("cannot parse node path from nvm output %q", out)
	}
	return filepath.Dir(last), nil
}

// ParsePlaywrightVersion extracts the bare version from
// `playwright --version` output ("Version 1.48.2" -> "1.48.2").
func ParsePlaywrightVersion(out string) string {
	out = strings.TrimSpace(out)
	out = strings.TrimPrefix(out, "Version")
	return strings.TrimSpace(out)
}

// WantedPlaywrightVersion reads the @playwright/test pin from a workspace
// package.json, checking devDependencies first. Range prefixes (^, ~, =)
// are stripped.
func WantedPlaywrightVersion(pkgJSON []byte) (string, error) {
	var pkg struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(pkgJSON, &pkg); err != nil {
		return "", fmt.Errorf("failed to parse workspace package.json: %w", err)
	}
	version, ok := pkg.DevDependencies["@playwright/test"]
	if !ok {
		version, ok = pkg.Dependencies["@playwright/test"]
	}
	if !ok || version == "" {
		return "", errors.New("workspace package.json does not declare @playwright/test")
	}
	return strings.TrimLeft(version, "^~="), nil
}
