package main

import "github.com/agentgate/agentgate/cmd/agentgate"

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	agentgate.Execute(version, commit, date)
}
