// Package config defines the configuration for a single e2e-runner
// invocation.
//
// Every CLI flag takes its default from an environment variable, so CI can
// configure the runner without rewriting the command line:
//
//	┌────────────────────┬─────────────────────┬───────────────┬──────────────────────────────────────┐
//	│ Field              │ Flag                │ Env           │ Default                              │
//	├────────────────────┼─────────────────────┼───────────────┼──────────────────────────────────────┤
//	│ Suite              │ --suite             │ E2E_SUITE     │ "chat"                               │
//	│ TarballURL         │ --tarball           │ E2E_TARBALL_URL │ ui-e2e-tests main branch archive   │
//	│ DotenvPath         │ --dotenv            │ E2E_DOTENV    │ ".env.e2e" (workspace-relative)      │
//	│ ArtifactsDir       │ --artifacts-dir     │ E2E_ARTIFACTS_DIR │ "artifacts"                      │
//	│ KeepWorkspace      │ --keep-tests-dir    │ E2E_KEEP_TESTS_DIR │ false                           │
//	│ NodeVersion        │ (env only)          │ E2E_NODE_VERSION │ "20" (major)                      │
//	│ AllureVersion      │ (env only)          │ E2E_ALLURE_VERSION │ "2.29.0"                        │
//	└────────────────────┴─────────────────────┴───────────────┴──────────────────────────────────────┘
//
// Arguments after -- are not configuration; they are forwarded verbatim to
// the Nx target (ExtraArgs).
//
// Defaults are applied with creasty/defaults; the flag/env wiring lives in
// the cmd package (viper). Configuration is process-duration only: nothing
// here is persisted.
package config
