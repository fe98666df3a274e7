package vfs

import (
	"context"
	"os"
	"path/filepath"

	"github.com/R3E-Network/agentsvc/domain/workspace"
)

// ImportOptions controls how Import walks and ingests a physical
// directory tree.
type ImportOptions struct {
	Include           []string // glob patterns; empty means all
	Exclude           []string // glob patterns
	ReadOnly          bool
	CreateFork        bool
	ProcessCode       bool
	GenerateEmbeddings bool
}

// CodeProcessor is invoked per ingested file when ProcessCode is set.
// The codeintel package implements this.
type CodeProcessor interface {
	ProcessFile(ctx context.Context, workspaceID, path string, content []byte) error
}

// Importer walks a directory and ingests its files into a new
// workspace, classifying the workspace by file-extension heuristic.
type Importer struct {
	engine *Engine
	code   CodeProcessor
}

// NewImporter builds an Importer over engine. code may be nil if
// ProcessCode is never requested.
func NewImporter(engine *Engine, code CodeProcessor) *Importer {
	return &Importer{engine: engine, code: code}
}

var codeExtensions = map[string]bool{
	".go": true, ".rs": true, ".py": true, ".js": true, ".ts": true,
	".java": true, ".c": true, ".cpp": true, ".h": true, ".rb": true,
}

var docExtensions = map[string]bool{
	".md": true, ".txt": true, ".rst": true, ".adoc": true,
}

// Import walks baseDir and ingests matching files into a new workspace.
func (im *Importer) Import(ctx context.Context, baseDir string, opts ImportOptions) (*workspace.Workspace, error) {
	wsType := workspace.TypeMixed
	ws := im.engine.CreateWorkspace(wsType, workspace.SourceLocal, false)

	var codeCount, docCount, total int

	err := filepath.WalkDir(baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(baseDir, path)
		if relErr != nil {
			return relErr
		}
		slashRel := filepath.ToSlash(rel)

		if !globMatchAny(slashRel, opts.Include, true) || globMatchAny(slashRel, opts.Exclude, false) {
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			return readErr
		}

		node, err := im.engine.Write(ctx, ws.ID, slashRel, content)
		if err != nil {
			return err
		}

		if info, statErr := d.Info(); statErr == nil {
			im.engine.setSourceMetadataLocked(ws.ID, node.Path, info.Mode(), info.ModTime())
		}

		total++
		ext := filepath.Ext(slashRel)
		if codeExtensions[ext] {
			codeCount++
			if opts.ProcessCode && im.code != nil {
				if err := im.code.ProcessFile(ctx, ws.ID, slashRel, content); err != nil {
					return err
				}
			}
		} else if docExtensions[ext] {
			docCount++
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	ws.Type = classifyWorkspace(total, codeCount, docCount)
	ws.ReadOnly = opts.ReadOnly
	im.engine.mu.Lock()
	im.engine.workspaces[ws.ID].ws.Type = ws.Type
	im.engine.workspaces[ws.ID].ws.ReadOnly = ws.ReadOnly
	im.engine.mu.Unlock()

	if opts.CreateFork {
		return im.engine.Fork(ws.ID)
	}
	return ws, nil
}

func classifyWorkspace(total, code, docs int) workspace.Type {
	if total == 0 {
		return workspace.TypeMixed
	}
	switch {
	case code > 0 && docs == 0:
		return workspace.TypeCode
	case docs > 0 && code == 0:
		return workspace.TypeDocs
	default:
		return workspace.TypeMixed
	}
}

// globMatchAny reports whether name matches any of patterns. When
// patterns is empty, matchEmpty is returned (true for include lists,
// false for exclude lists).
func globMatchAny(name string, patterns []string, matchEmpty bool) bool {
	if len(patterns) == 0 {
		return matchEmpty
	}
	for _, pat := range patterns {
		if ok, _ := filepath.Match(pat, name); ok {
			return true
		}
		if ok, _ := filepath.Match(pat, filepath.Base(name)); ok {
			return true
		}
	}
	return false
}
