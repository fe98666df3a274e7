package orchestrator

import (
	"testing"

	domain "github.com/R3E-Network/agentsvc/domain/workflow"
)

func TestTopologicalSort_RespectsDependencies(t *testing.T) {
	wf := domain.Workflow{
		ID:    "wf1",
		Tasks: []domain.Task{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Dependencies: map[string][]string{
			"b": {"a"},
			"c": {"b"},
		},
	}

	schedule, err := TopologicalSort(wf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pos := make(map[string]int)
	for i, id := range schedule.SortedTasks {
		pos[id] = i
	}
	if pos["a"] >= pos["b"] || pos["b"] >= pos["c"] {
		t.Fatalf("expected order a,b,c, got %v", schedule.SortedTasks)
	}
}

func TestTopologicalSort_DetectsCycle(t *testing.T) {
	wf := domain.Workflow{
		ID:    "wf1",
		Tasks: []domain.Task{{ID: "a"}, {ID: "b"}},
		Dependencies: map[string][]string{
			"a": {"b"},
			"b": {"a"},
		},
	}

	if _, err := TopologicalSort(wf); err == nil {
		t.Fatal("expected a cycle error")
	}
}

func TestTopologicalSort_IndependentTasksAnyOrder(t *testing.T) {
	wf := domain.Workflow{
		ID:    "wf1",
		Tasks: []domain.Task{{ID: "a"}, {ID: "b"}},
	}

	schedule, err := TopologicalSort(wf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(schedule.SortedTasks) != 2 {
		t.Fatalf("expected both tasks scheduled, got %v", schedule.SortedTasks)
	}
}
