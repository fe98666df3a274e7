// Command agentsvcctl is the CLI collaborator for agentsvcd: it drives
// the REST API's workflow and import/export endpoints and maps the
// response to the exit codes of spec §6 (0 success, 2 validation error,
// 3 backend unavailable, 4 conflict, 1 generic).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/R3E-Network/agentsvc/pkg/version"
)

const (
	exitSuccess    = 0
	exitGeneric    = 1
	exitValidation = 2
	exitBackend    = 3
	exitConflict   = 4
)

var rootCmd = &cobra.Command{
	Use:           "agentsvcctl",
	Short:         "CLI client for the agentsvc server",
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("agentsvcctl %s\n", version.FullVersion()))
	rootCmd.PersistentFlags().String("server", "http://localhost:8080", "agentsvcd base URL")
	rootCmd.PersistentFlags().String("token", "", "bearer token issued by /api/v1/credentials")

	rootCmd.AddCommand(workflowCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}
