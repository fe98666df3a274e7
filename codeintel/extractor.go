// Package codeintel implements the code-intelligence pipeline: parse a
// file, extract structured units and dependencies, and keep storage,
// the Graph Cache, and Semantic Memory in sync with the workspace.
package codeintel

import (
	"context"
	"strings"

	domain "github.com/R3E-Network/agentsvc/domain/codeintel"
	svcerrors "github.com/R3E-Network/agentsvc/internal/errors"
)

// LanguageExtractor turns a file's bytes into structured units and
// dependencies. One implementation per supported language.
type LanguageExtractor interface {
	Language() string
	Extract(ctx context.Context, filePath string, content []byte) (domain.ParseResult, error)
}

// UnsupportedLanguageExtractor is returned for file extensions with no
// real extractor wired in; Extract always fails with InvalidInput so
// callers can distinguish "nothing to extract" from a parse error.
type UnsupportedLanguageExtractor struct {
	Ext string
}

func (u UnsupportedLanguageExtractor) Language() string { return "unsupported:" + u.Ext }

func (u UnsupportedLanguageExtractor) Extract(ctx context.Context, filePath string, content []byte) (domain.ParseResult, error) {
	return domain.ParseResult{}, svcerrors.InvalidInput("language", "no extractor registered for "+u.Ext)
}

// extractorForExt selects the language-specific extractor by file
// extension, matching the pipeline's "detects language from extension"
// responsibility.
func extractorForExt(path string) LanguageExtractor {
	switch {
	case strings.HasSuffix(path, ".go"):
		return GoExtractor{}
	default:
		ext := path
		if idx := strings.LastIndex(path, "."); idx >= 0 {
			ext = path[idx:]
		}
		return UnsupportedLanguageExtractor{Ext: ext}
	}
}
