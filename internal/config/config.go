package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/creasty/defaults"
)

// Configuration holds everything a single run needs. Values come from CLI
// flags, with environment variables providing the defaults (see doc.go).
type Configuration struct {
	// Suite is the named test grouping to execute.
	Suite string `default:"chat" debugmap:"visible"`
	// TarballURL points at the external test workspace archive.
	TarballURL string `default:"https://github.com/kubev2v/ui-e2e-tests/archive/refs/heads/main.tar.gz" debugmap:"visible"`
	// DotenvPath is resolved relative to the extracted workspace.
	DotenvPath string `default:".env.e2e" debugmap:"visible"`
	// ArtifactsDir receives the rendered Allure report and the XLSX summary.
	ArtifactsDir string `default:"artifacts" debugmap:"visible"`
	// KeepWorkspace skips workspace removal after the run.
	KeepWorkspace bool `debugmap:"visible"`

	// Toolchain pins. Node is a major version; Allure a full one.
	NodeVersion   string `default:"20" debugmap:"visible"`
	AllureVersion string `default:"2.29.0" debugmap:"visible"`

	// ExtraArgs are forwarded verbatim to the Nx target (everything after --).
	ExtraArgs []string `debugmap:"visible"`
}

// New returns a Configuration populated with defaults.
func New() (*Configuration, error) {
	cfg := &Configuration{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply configuration defaults: %w", err)
	}
	return cfg, nil
}

func (c *Configuration) Validate() error {
	if c.Suite == "" {
		return errors.New("suite name is empty")
	}
	if c.TarballURL == "" {
		return errors.New("tarball URL is empty")
	}
	u, err := url.Parse(c.TarballURL)
	if err != nil {
		return fmt.Errorf("failed to parse tarball URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid tarball URL %q: scheme must be http or https", c.TarballURL)
	}
	if c.ArtifactsDir == "" {
		return errors.New("artifacts directory is empty")
	}
	if c.NodeVersion == "" {
		return errors.New("node version is empty")
	}
	return nil
}

// DebugMap returns the configuration as a map suitable for structured
// logging at startup.
func (c *Configuration) DebugMap() map[string]any {
	return map[string]any{
		"suite":          c.Suite,
		"tarball_url":    c.TarballURL,
		"dotenv_path":    c.DotenvPath,
		"artifacts_dir":  c.ArtifactsDir,
		"keep_workspace": c.KeepWorkspace,
		"node_version":   c.NodeVersion,
		"allure_version": c.AllureVersion,
		"extra_args":     c.ExtraArgs,
	}
}
