// Package validator implements the Task Validator: structural rules
// over raw input text, plus per-task-type schema validation.
package validator

import (
	"strings"

	"github.com/tidwall/gjson"
)

// ValidTaskTypes are the built-in task types structural validation
// recognizes. Unknown types fail structural validation but the
// orchestrator is free to permit them with a default capability set.
var ValidTaskTypes = map[string]bool{
	"development":   true,
	"review":        true,
	"testing":       true,
	"documentation": true,
	"optimization":  true,
	"security":      true,
	"architecture":  true,
	"deployment":    true,
	"monitoring":    true,
}

// Report is the result of a structural Validate call.
type Report struct {
	Passed   []string
	Failed   []string
	Warnings []string
	Success  bool
}

// Validate runs the structural rules (non-empty input, JSON
// well-formedness when the input looks like JSON, valid task_type and
// required fields when it is JSON) over raw input text.
func Validate(input string) Report {
	var report Report

	if strings.TrimSpace(input) == "" {
		report.Failed = append(report.Failed, "non_empty_input: input is empty")
	} else {
		report.Passed = append(report.Passed, "non_empty_input")
	}

	trimmed := strings.TrimSpace(input)
	looksLikeJSON := strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
	isValidJSON := looksLikeJSON && gjson.Valid(input)

	if looksLikeJSON {
		if isValidJSON {
			report.Passed = append(report.Passed, "valid_json_format")
		} else {
			report.Failed = append(report.Failed, "valid_json_format: invalid JSON format")
		}
	} else {
		report.Passed = append(report.Passed, "valid_json_format")
	}

	if isValidJSON {
		taskType := gjson.Get(input, "task_type")
		if !taskType.Exists() {
			report.Warnings = append(report.Warnings, "valid_task_type: no task_type field found in JSON")
			report.Passed = append(report.Passed, "valid_task_type")
		} else if ValidTaskTypes[taskType.String()] {
			report.Passed = append(report.Passed, "valid_task_type")
		} else {
			report.Failed = append(report.Failed, "valid_task_type: unknown task type: "+taskType.String())
		}

		var missing []string
		for _, field := range []string{"id", "name", "task_type"} {
			if !gjson.Get(input, field).Exists() {
				missing = append(missing, field)
			}
		}
		if len(missing) == 0 {
			report.Passed = append(report.Passed, "required_fields")
		} else {
			report.Warnings = append(report.Warnings, "required_fields: missing optional fields: "+strings.Join(missing, ", "))
			report.Passed = append(report.Passed, "required_fields")
		}
	} else {
		report.Passed = append(report.Passed, "valid_task_type", "required_fields")
	}

	report.Success = len(report.Failed) == 0
	return report
}

// TaskReport is the result of validate_task's per-type schema pass.
type TaskReport struct {
	Valid       bool
	TaskType    string
	Errors      []string
	Warnings    []string
	Suggestions []string
}

// SchemaValidator validates a task's JSON payload for one task type.
type SchemaValidator func(taskJSON string) (errors, warnings, suggestions []string)

var schemaValidators = map[string]SchemaValidator{
	"development": validateDevelopment,
	"testing":     validateTesting,
	"review":      validateReview,
}

// ValidateTask parses taskJSON, checks task_type against the known
// types, and dispatches to that type's schema validator when one is
// registered. Unknown-but-structurally-valid task types are reported
// invalid here; callers that want to permit custom types with a default
// capability set (per spec.md §4.7) should check TaskType and bypass
// this result rather than relying on Valid.
func ValidateTask(taskJSON string) TaskReport {
	if !gjson.Valid(taskJSON) {
		return TaskReport{Valid: false, Errors: []string{"invalid JSON"}}
	}

	taskType := gjson.Get(taskJSON, "task_type")
	if !taskType.Exists() {
		return TaskReport{Valid: false, Errors: []string{"missing task_type field"}}
	}
	tt := taskType.String()

	if !ValidTaskTypes[tt] {
		return TaskReport{
			Valid:       false,
			TaskType:    tt,
			Errors:      []string{"invalid task type: " + tt},
			Suggestions: []string{"valid task types are: " + validTaskTypeList()},
		}
	}

	var errs, warnings, suggestions []string
	if validate, ok := schemaValidators[tt]; ok {
		errs, warnings, suggestions = validate(taskJSON)
	}

	return TaskReport{
		Valid:       len(errs) == 0,
		TaskType:    tt,
		Errors:      errs,
		Warnings:    warnings,
		Suggestions: suggestions,
	}
}

func validTaskTypeList() string {
	types := make([]string, 0, len(ValidTaskTypes))
	for t := range ValidTaskTypes {
		types = append(types, t)
	}
	return strings.Join(types, ", ")
}

func validateDevelopment(taskJSON string) (errors, warnings, suggestions []string) {
	if !gjson.Get(taskJSON, "description").Exists() {
		errors = append(errors, "missing 'description' field for development task")
	}
	if !gjson.Get(taskJSON, "language").Exists() {
		warnings = append(warnings, "no 'language' specified, will use default")
		suggestions = append(suggestions, "consider specifying the programming language")
	}
	if complexity := gjson.Get(taskJSON, "complexity"); complexity.Exists() {
		valid := map[string]bool{"simple": true, "moderate": true, "complex": true}
		if !valid[complexity.String()] {
			warnings = append(warnings, "unknown complexity level: "+complexity.String())
			suggestions = append(suggestions, "valid complexity levels: simple, moderate, complex")
		}
	}
	return
}

func validateTesting(taskJSON string) (errors, warnings, suggestions []string) {
	if !gjson.Get(taskJSON, "test_type").Exists() {
		warnings = append(warnings, "no 'test_type' specified (unit, integration, e2e)")
	}
	if coverage := gjson.Get(taskJSON, "target_coverage"); coverage.Exists() {
		cov := coverage.Float()
		if cov < 0 || cov > 100 {
			errors = append(errors, "invalid coverage target: value out of range 0-100")
			suggestions = append(suggestions, "coverage should be between 0 and 100")
		}
	}
	if !gjson.Get(taskJSON, "test_framework").Exists() {
		suggestions = append(suggestions, "consider specifying a test framework")
	}
	return
}

func validateReview(taskJSON string) (errors, warnings, suggestions []string) {
	if !gjson.Get(taskJSON, "review_type").Exists() {
		warnings = append(warnings, "no 'review_type' specified (code, security, architecture)")
	}
	if !gjson.Get(taskJSON, "files_to_review").Exists() && !gjson.Get(taskJSON, "pr_number").Exists() {
		errors = append(errors, "either 'files_to_review' or 'pr_number' must be specified")
	}
	if checklist := gjson.Get(taskJSON, "checklist"); checklist.Exists() {
		if !checklist.IsArray() {
			warnings = append(warnings, "'checklist' should be an array of review items")
		}
	} else {
		suggestions = append(suggestions, "consider adding a review checklist")
	}
	return
}
