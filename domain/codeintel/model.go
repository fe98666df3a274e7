// Package codeintel holds the data model for parsed source units and
// their dependencies.
package codeintel

import "time"

// UnitKind is the kind of structured unit an extractor can produce.
type UnitKind string

const (
	UnitFunction UnitKind = "function"
	UnitStruct   UnitKind = "struct"
	UnitEnum     UnitKind = "enum"
	UnitTrait    UnitKind = "trait"
	UnitImpl     UnitKind = "impl"
	UnitModule   UnitKind = "module"
)

// Visibility mirrors the source language's exported/unexported split.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Unit is a single parsed function, struct, enum, trait, impl, or
// module, with enough position and signature info to drive navigation
// and semantic-memory indexing.
type Unit struct {
	ID            string
	WorkspaceID   string
	FilePath      string
	Kind          UnitKind
	Name          string
	QualifiedName string
	Visibility    Visibility
	Signature     string
	Docstring     string
	Complexity    int
	StartLine     int
	EndLine       int
	Version       int
	UpdatedAt     time.Time
}

// DependencyKind is the kind of edge a Dependency represents.
type DependencyKind string

const (
	DependencyImport     DependencyKind = "import"
	DependencyCall       DependencyKind = "call"
	DependencyTypeRef    DependencyKind = "type_ref"
	DependencyImplements DependencyKind = "implements"
)

// Dependency is a directed edge discovered between two qualified names
// in the same parse pass.
type Dependency struct {
	From string
	To   string
	Kind DependencyKind
}

// ParseResult is everything extracted from one file.
type ParseResult struct {
	Units        []Unit
	Dependencies []Dependency
}

// Diff describes how a reparse's unit set changed relative to the
// previous parse of the same file, keyed by qualified name.
type Diff struct {
	Inserted []Unit
	Removed  []Unit
	Changed  []Unit
}
