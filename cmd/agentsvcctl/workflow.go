package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "submit, inspect, or cancel workflows",
}

func init() {
	submitCmd := &cobra.Command{
		Use:   "submit <workflow-file>",
		Short: "submit a workflow definition (YAML or JSON)",
		Args:  cobra.ExactArgs(1),
		RunE:  runWorkflowSubmit,
	}
	statusCmd := &cobra.Command{
		Use:   "status <workflow-id>",
		Short: "report a submitted workflow's current status",
		Args:  cobra.ExactArgs(1),
		RunE:  runWorkflowStatus,
	}
	cancelCmd := &cobra.Command{
		Use:   "cancel <workflow-id>",
		Short: "request cancellation of a running workflow",
		Args:  cobra.ExactArgs(1),
		RunE:  runWorkflowCancel,
	}
	workflowCmd.AddCommand(submitCmd, statusCmd, cancelCmd)
}

// workflowFile is the external collaborator's on-disk shape per
// spec §6: {id, tasks:[{id, task_type, input}], dependencies:{id:[id...]}}.
type workflowFile struct {
	ID           string              `json:"id" yaml:"id"`
	Tasks        []workflowFileTask  `json:"tasks" yaml:"tasks"`
	Dependencies map[string][]string `json:"dependencies" yaml:"dependencies"`
}

type workflowFileTask struct {
	ID       string                 `json:"id" yaml:"id"`
	TaskType string                 `json:"task_type" yaml:"task_type"`
	Input    map[string]interface{} `json:"input" yaml:"input"`
}

func clientFromCmd(cmd *cobra.Command) *apiClient {
	server, _ := cmd.Flags().GetString("server")
	token, _ := cmd.Flags().GetString("token")
	return newAPIClient(server, token)
}

func runWorkflowSubmit(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return &cliError{exitValidation, err}
	}

	var wf workflowFile
	if unmarshalErr := parseWorkflowFile(data, &wf); unmarshalErr != nil {
		return &cliError{exitValidation, unmarshalErr}
	}
	if len(wf.Tasks) == 0 {
		return &cliError{exitValidation, fmt.Errorf("workflow defines no tasks")}
	}

	var result map[string]interface{}
	if err := clientFromCmd(cmd).call("POST", "/api/v1/tasks", wf, &result); err != nil {
		return err
	}
	return printJSON(result)
}

func runWorkflowStatus(cmd *cobra.Command, args []string) error {
	var result map[string]interface{}
	if err := clientFromCmd(cmd).call("GET", "/api/v1/tasks/"+args[0], nil, &result); err != nil {
		return err
	}
	return printJSON(result)
}

func runWorkflowCancel(cmd *cobra.Command, args []string) error {
	var result map[string]interface{}
	if err := clientFromCmd(cmd).call("POST", "/api/v1/tasks/"+args[0]+"/cancel", nil, &result); err != nil {
		return err
	}
	return printJSON(result)
}

func parseWorkflowFile(data []byte, out *workflowFile) error {
	if jsonErr := json.Unmarshal(data, out); jsonErr == nil {
		return nil
	}
	return yaml.Unmarshal(data, out)
}

func printJSON(v interface{}) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &cliError{exitGeneric, err}
	}
	fmt.Println(string(encoded))
	return nil
}
