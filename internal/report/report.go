// Package report turns raw Allure results into deliverable artifacts: the
// rendered Allure report and a small XLSX summary for people who will not
// open the full report.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/kubev2v/e2e-runner/internal/util"
)

// Generate renders the Allure report from resultsDir into
// <artifactsDir>/allure-report and writes the XLSX summary next to it.
// Failures here never change the run's exit code; callers log and continue.
func Generate(ctx context.Context, resultsDir, artifactsDir string) error {
	if err := os.MkdirAll(artifactsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifacts directory %s: %w", artifactsDir, err)
	}

	color.Cyan("==> Generating Allure report")
	reportDir := filepath.Join(artifactsDir, "allure-report")
	if err := util.RunStreaming(ctx, "", nil, "allure", "generate", resultsDir, "--clean", "-o", reportDir); err != nil {
		return fmt.Errorf("failed to generate allure report: %w", err)
	}
	zap.S().Infow("allure report generated", "dir", reportDir)

	summaryPath := filepath.Join(artifactsDir, "summary.xlsx")
	if err := WriteSummary(resultsDir, summaryPath); err != nil {
		return err
	}
	zap.S().Infow("summary written", "path", summaryPath)
	return nil
}
