package main

import (
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <base-dir>",
	Short: "import a directory on the server's host into a new workspace",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export <workspace-id> <target-dir>",
	Short: "materialize a workspace onto the server's host filesystem",
	Args:  cobra.ExactArgs(2),
	RunE:  runExport,
}

func init() {
	importCmd.Flags().Bool("process-code", true, "run imported files through the code-intelligence pipeline")
	importCmd.Flags().Bool("read-only", false, "mark the imported workspace read-only")
	exportCmd.Flags().Bool("atomic", true, "write files atomically via a temp-file rename")
}

func runImport(cmd *cobra.Command, args []string) error {
	processCode, _ := cmd.Flags().GetBool("process-code")
	readOnly, _ := cmd.Flags().GetBool("read-only")

	req := map[string]interface{}{
		"base_dir":     args[0],
		"process_code": processCode,
		"read_only":    readOnly,
	}
	var result map[string]interface{}
	if err := clientFromCmd(cmd).call("POST", "/api/v1/import", req, &result); err != nil {
		return err
	}
	return printJSON(result)
}

func runExport(cmd *cobra.Command, args []string) error {
	atomic, _ := cmd.Flags().GetBool("atomic")

	req := map[string]interface{}{
		"workspace_id": args[0],
		"target_dir":   args[1],
		"atomic":       atomic,
	}
	var result map[string]interface{}
	if err := clientFromCmd(cmd).call("POST", "/api/v1/export", req, &result); err != nil {
		return err
	}
	return printJSON(result)
}
