package main

import (
	"os"

	"github.com/GriffinCanCode/AgentOS/procfixture/internal/process"
)

func main() {
	// Spawned children run their procedure here and never return
	process.DispatchAndExit()

	os.Exit(Execute(os.Args[1:], os.Stdout, os.Stderr))
}
