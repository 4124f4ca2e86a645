package cmd

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cmd Suite")
}

var _ = Describe("configFromFlags", func() {
	It("should use the documented defaults", func() {
		cmd := newRootCmd()

		cfg := configFromFlags(cmd, nil)

		Expect(cfg.Suite).To(Equal("chat"))
		Expect(cfg.ArtifactsDir).To(Equal("artifacts"))
		Expect(cfg.KeepWorkspace).To(BeFalse())
		Expect(cfg.NodeVersion).To(Equal("20"))
	})

	// Given an environment override
	// When the configuration is assembled
	// Then the env value beats the flag default
	It("should honor environment overrides", func() {
		GinkgoT().Setenv("E2E_SUITE", "overlay")
		GinkgoT().Setenv("E2E_ARTIFACTS_DIR", "/tmp/e2e-artifacts")
		cmd := newRootCmd()

		cfg := configFromFlags(cmd, nil)

		Expect(cfg.Suite).To(Equal("overlay"))
		Expect(cfg.ArtifactsDir).To(Equal("/tmp/e2e-artifacts"))
	})

	It("should honor toolchain env pins", func() {
		GinkgoT().Setenv("E2E_NODE_VERSION", "22")
		GinkgoT().Setenv("E2E_ALLURE_VERSION", "2.30.0")
		cmd := newRootCmd()

		cfg := configFromFlags(cmd, nil)

		Expect(cfg.NodeVersion).To(Equal("22"))
		Expect(cfg.AllureVersion).To(Equal("2.30.0"))
	})

	It("should prefer an explicit flag over the environment", func() {
		GinkgoT().Setenv("E2E_SUITE", "overlay")
		cmd := newRootCmd()
		Expect(cmd.ParseFlags([]string{"--suite", "chat"})).To(Succeed())

		cfg := configFromFlags(cmd, nil)

		Expect(cfg.Suite).To(Equal("chat"))
	})

	It("should collect passthrough arguments after the dash", func() {
		cmd := newRootCmd()
		Expect(cmd.ParseFlags([]string{"--suite", "chat", "--", "--grep", "smoke"})).To(Succeed())

		cfg := configFromFlags(cmd, cmd.Flags().Args())

		Expect(cfg.ExtraArgs).To(Equal([]string{"--grep", "smoke"}))
	})
})

var _ = Describe("runCommand", func() {
	// Given a flag that requires a value but got none
	// When the CLI is executed
	// Then it exits non-zero without running anything
	It("should fail fast on a missing flag value", func() {
		cmd := newRootCmd()
		cmd.SetArgs([]string{"--suite"})

		Expect(runCommand(cmd)).NotTo(BeZero())
	})

	It("should reject an unknown flag", func() {
		cmd := newRootCmd()
		cmd.SetArgs([]string{"--no-such-flag"})

		Expect(runCommand(cmd)).NotTo(BeZero())
	})
})

var _ = Describe("finishRun", func() {
	var (
		ctx          context.Context
		resultsDir   string
		artifactsDir string
	)

	BeforeEach(func() {
		ctx = context.Background()
		resultsDir = GinkgoT().TempDir()
		artifactsDir = filepath.Join(GinkgoT().TempDir(), "artifacts")
	})

	// Given a failing test run and a broken report step
	// When the run finishes
	// Then the test runner's exit code survives unchanged
	It("should keep the runner's exit code when report generation fails", func() {
		orig := generateReport
		generateReport = func(ctx context.Context, resultsDir, artifactsDir string) error {
			return errors.New("allure is not installed")
		}
		DeferCleanup(func() { generateReport = orig })

		Expect(finishRun(ctx, resultsDir, artifactsDir, 7)).To(Equal(7))
	})

	It("should keep a zero exit code when report generation fails", func() {
		orig := generateReport
		generateReport = func(ctx context.Context, resultsDir, artifactsDir string) error {
			return errors.New("allure is not installed")
		}
		DeferCleanup(func() { generateReport = orig })

		Expect(finishRun(ctx, resultsDir, artifactsDir, 0)).To(BeZero())
	})

	It("should keep the exit code when the results directory is missing", func() {
		missing := filepath.Join(resultsDir, "does-not-exist")

		Expect(finishRun(ctx, missing, artifactsDir, 3)).To(Equal(3))
	})

	It("should keep the exit code when the report succeeds", func() {
		var generated bool
		orig := generateReport
		generateReport = func(ctx context.Context, resultsDir, artifactsDir string) error {
			generated = true
			return nil
		}
		DeferCleanup(func() { generateReport = orig })

		Expect(finishRun(ctx, resultsDir, artifactsDir, 2)).To(Equal(2))
		Expect(generated).To(BeTrue())
	})
})
