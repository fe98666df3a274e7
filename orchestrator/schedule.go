package orchestrator

import (
	"sort"

	domain "github.com/R3E-Network/agentsvc/domain/workflow"
	svcerrors "github.com/R3E-Network/agentsvc/internal/errors"
)

// TopologicalSort produces a dependency-respecting ordering of a
// workflow's tasks via Kahn's algorithm, breaking ties by task ID so
// the schedule is deterministic.
func TopologicalSort(wf domain.Workflow) (domain.ExecutionSchedule, error) {
	indegree := make(map[string]int, len(wf.Tasks))
	dependents := make(map[string][]string)

	for _, t := range wf.Tasks {
		indegree[t.ID] = 0
	}
	for taskID, deps := range wf.Dependencies {
		if _, ok := indegree[taskID]; !ok {
			continue
		}
		for _, dep := range deps {
			if _, ok := indegree[dep]; !ok {
				continue
			}
			indegree[taskID]++
			dependents[dep] = append(dependents[dep], taskID)
		}
	}

	var ready []string
	for id, deg := range indegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	var sorted []string
	for len(ready) > 0 {
		sort.Strings(ready)
		next := ready[0]
		ready = ready[1:]
		sorted = append(sorted, next)

		for _, dependent := range dependents[next] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(sorted) != len(wf.Tasks) {
		return domain.ExecutionSchedule{}, svcerrors.InvalidInput("workflow.dependencies", "cycle detected in task dependency graph")
	}

	return domain.ExecutionSchedule{SortedTasks: sorted}, nil
}
