package main

import (
	"os"

	"github.com/kubev2v/e2e-runner/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
