package codeintel

import (
	"context"
	"sync"

	"github.com/google/uuid"

	domain "github.com/R3E-Network/agentsvc/domain/codeintel"
	memdomain "github.com/R3E-Network/agentsvc/domain/memory"
	"github.com/R3E-Network/agentsvc/graph"
	"github.com/R3E-Network/agentsvc/memory"
)

// ChangeEmitter is notified when a reparse changes a file's unit set.
// The Event Bus implements this to publish CodeChanged events.
type ChangeEmitter interface {
	EmitCodeChanged(ctx context.Context, workspaceID, filePath string, diff domain.Diff)
}

// Pipeline implements vfs.CodeProcessor: for each ingested or changed
// file it parses, extracts units and dependencies, upserts them,
// updates the Graph Cache and Semantic Memory, and (on reparse) emits a
// diff of what changed.
type Pipeline struct {
	mu      sync.Mutex
	graph   *graph.Cache
	sem     *memory.SemanticStore
	emitter ChangeEmitter
	// prior holds the last parse's units per (workspaceID, filePath),
	// keyed by qualified name, to support incremental reparse diffing.
	prior map[string]map[string]domain.Unit
}

// NewPipeline wires a Pipeline to the Graph Cache and Semantic Memory it
// keeps in sync. emitter may be nil.
func NewPipeline(g *graph.Cache, sem *memory.SemanticStore, emitter ChangeEmitter) *Pipeline {
	return &Pipeline{
		graph:   g,
		sem:     sem,
		emitter: emitter,
		prior:   make(map[string]map[string]domain.Unit),
	}
}

// ProcessFile implements vfs.CodeProcessor.
func (p *Pipeline) ProcessFile(ctx context.Context, workspaceID, path string, content []byte) error {
	extractor := extractorForExt(path)
	result, err := extractor.Extract(ctx, path, content)
	if err != nil {
		if _, ok := extractor.(UnsupportedLanguageExtractor); ok {
			return nil // no extractor for this language; not an error
		}
		return err
	}

	for i := range result.Units {
		result.Units[i].WorkspaceID = workspaceID
		if result.Units[i].ID == "" {
			result.Units[i].ID = uuid.NewString()
		}
	}

	key := workspaceID + ":" + path
	p.mu.Lock()
	previous := p.prior[key]
	p.mu.Unlock()

	diff := diffUnits(previous, result.Units)

	current := make(map[string]domain.Unit, len(result.Units))
	for _, u := range result.Units {
		u.Version = 1
		if old, ok := previous[u.QualifiedName]; ok {
			u.Version = old.Version + 1
		}
		current[u.QualifiedName] = u

		if err := p.graph.AddNode(ctx, workspaceID, u.QualifiedName, string(u.Kind)); err != nil {
			return err
		}
		if err := p.sem.Upsert(ctx, memdomain.SemanticUnit{
			ID:            u.ID,
			WorkspaceID:   workspaceID,
			Name:          u.Name,
			QualifiedName: u.QualifiedName,
			FilePath:      u.FilePath,
		}); err != nil {
			return err
		}
	}

	for _, dep := range result.Dependencies {
		if dep.Kind == domain.DependencyImport {
			// Import targets are external to this parse pass; register
			// them as lightweight package nodes so the edge isn't
			// silently dropped by the Graph Cache's missing-endpoint skip.
			if err := p.graph.AddNode(ctx, workspaceID, dep.To, "package"); err != nil {
				return err
			}
		}
		if err := p.graph.AddEdge(ctx, dep.From, dep.To, edgeKindOf(dep.Kind)); err != nil {
			return err
		}
	}

	p.mu.Lock()
	p.prior[key] = current
	p.mu.Unlock()

	if p.emitter != nil && previous != nil && (len(diff.Inserted) > 0 || len(diff.Removed) > 0 || len(diff.Changed) > 0) {
		p.emitter.EmitCodeChanged(ctx, workspaceID, path, diff)
	}
	return nil
}

// diffUnits compares the previous parse's units (by qualified name)
// against the new parse's units, producing the incremental-reparse
// diff spec.md §4.5 describes.
func diffUnits(previous map[string]domain.Unit, next []domain.Unit) domain.Diff {
	var diff domain.Diff
	seen := make(map[string]bool, len(next))

	for _, u := range next {
		seen[u.QualifiedName] = true
		old, existed := previous[u.QualifiedName]
		if !existed {
			diff.Inserted = append(diff.Inserted, u)
			continue
		}
		if old.Signature != u.Signature || old.Complexity != u.Complexity || old.EndLine != u.EndLine {
			diff.Changed = append(diff.Changed, u)
		}
	}
	for name, u := range previous {
		if !seen[name] {
			diff.Removed = append(diff.Removed, u)
		}
	}
	return diff
}

func edgeKindOf(k domain.DependencyKind) graph.EdgeKind {
	switch k {
	case domain.DependencyImport:
		return graph.EdgeImport
	case domain.DependencyCall:
		return graph.EdgeCall
	case domain.DependencyTypeRef:
		return graph.EdgeTypeRef
	case domain.DependencyImplements:
		return graph.EdgeImplements
	default:
		return graph.EdgeOther
	}
}
