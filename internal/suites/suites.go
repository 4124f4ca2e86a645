// Package suites maps suite names to Nx run targets and the Allure results
// directory each target writes to.
package suites

import "path"

// Suite describes a named test grouping: the Nx target that executes it and
// the workspace-relative directory its raw Allure results land in.
type Suite struct {
	Name       string
	Target     string
	ResultsDir string
}

// Known suites. Targets and results paths follow the layout of the
// downloaded test workspace (an Nx monorepo with one app per UI surface).
var table = map[string]Suite{
	"chat": {
		Name:       "chat",
		Target:     "chat-ui:e2e",
		ResultsDir: "apps/chat-ui/allure-results",
	},
	"overlay": {
		Name:       "overlay",
		Target:     "overlay-ui:e2e",
		ResultsDir: "apps/overlay-ui/allure-results",
	},
}

// Resolve returns the Suite for the given name. Unknown names are not an
// error: the name itself is used as the Nx target and the results directory
// is derived from the monorepo app layout, so one-off targets can be run
// without touching the table.
func Resolve(name string) Suite {
	if s, ok := table[name]; ok {
		return s
	}
	return Suite{
		Name:       name,
		Target:     name,
		ResultsDir: path.Join("apps", name, "allure-results"),
	}
}

// Names returns the recognized suite names.
func Names() []string {
	return []string{"chat", "overlay"}
}
