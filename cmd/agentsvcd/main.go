// Command agentsvcd is the agentsvc server daemon: it wires every
// subsystem (VFS, sessions, graph cache, memory, code intelligence,
// agent pool, orchestrator, event bus, REST/WebSocket API) and serves
// them over HTTP until signalled to stop.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/R3E-Network/agentsvc/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:   "agentsvcd",
	Short: "agentsvc server daemon",
	Long: `agentsvcd runs the agentsvc platform core: a virtual filesystem with
fork/merge session semantics, a dependency graph cache, three-store
cognitive memory, a code-intelligence pipeline, and a capability-matched
workflow executor, all served over a REST and WebSocket API.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("agentsvcd %s\n", version.FullVersion()))
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
