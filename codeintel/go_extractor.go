package codeintel

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"

	domain "github.com/R3E-Network/agentsvc/domain/codeintel"
	svcerrors "github.com/R3E-Network/agentsvc/internal/errors"
)

// GoExtractor parses Go source with go/parser and go/ast. It is the one
// real, fully-implemented LanguageExtractor; other languages register
// an UnsupportedLanguageExtractor until a real parser is wired in.
type GoExtractor struct{}

func (GoExtractor) Language() string { return "go" }

func (GoExtractor) Extract(ctx context.Context, filePath string, content []byte) (domain.ParseResult, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filePath, content, parser.ParseComments)
	if err != nil {
		return domain.ParseResult{}, svcerrors.Wrap(svcerrors.KindInvalidInput, "parse go file", err)
	}

	var result domain.ParseResult
	pkgName := file.Name.Name

	result.Units = append(result.Units, domain.Unit{
		FilePath:      filePath,
		Kind:          domain.UnitModule,
		Name:          pkgName,
		QualifiedName: pkgName,
		Visibility:    domain.VisibilityPublic,
		StartLine:     fset.Position(file.Package).Line,
		EndLine:       fset.Position(file.End()).Line,
		Complexity:    1,
	})

	for _, imp := range file.Imports {
		path := strings.Trim(imp.Path.Value, `"`)
		result.Dependencies = append(result.Dependencies, domain.Dependency{
			From: pkgName,
			To:   path,
			Kind: domain.DependencyImport,
		})
	}

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			result.Units = append(result.Units, goFuncUnit(fset, pkgName, d))
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				result.Units = append(result.Units, goTypeUnit(fset, pkgName, d, ts))
			}
		}
	}

	return result, nil
}

func goFuncUnit(fset *token.FileSet, pkgName string, d *ast.FuncDecl) domain.Unit {
	name := d.Name.Name
	qualified := pkgName + "." + name
	kind := domain.UnitFunction
	if d.Recv != nil && len(d.Recv.List) > 0 {
		recvType := receiverTypeName(d.Recv.List[0].Type)
		qualified = pkgName + "." + recvType + "." + name
		kind = domain.UnitImpl
	}

	return domain.Unit{
		FilePath:      fset.Position(d.Pos()).Filename,
		Kind:          kind,
		Name:          name,
		QualifiedName: qualified,
		Visibility:    visibilityOf(name),
		Signature:     funcSignature(fset, d),
		Docstring:     commentText(d.Doc),
		Complexity:    complexityOf(d.Body),
		StartLine:     fset.Position(d.Pos()).Line,
		EndLine:       fset.Position(d.End()).Line,
	}
}

func goTypeUnit(fset *token.FileSet, pkgName string, d *ast.GenDecl, ts *ast.TypeSpec) domain.Unit {
	kind := domain.UnitStruct
	if _, ok := ts.Type.(*ast.InterfaceType); ok {
		kind = domain.UnitTrait
	}
	return domain.Unit{
		FilePath:      fset.Position(d.Pos()).Filename,
		Kind:          kind,
		Name:          ts.Name.Name,
		QualifiedName: pkgName + "." + ts.Name.Name,
		Visibility:    visibilityOf(ts.Name.Name),
		Docstring:     commentText(d.Doc),
		Complexity:    1,
		StartLine:     fset.Position(d.Pos()).Line,
		EndLine:       fset.Position(d.End()).Line,
	}
}

func receiverTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverTypeName(t.X)
	case *ast.Ident:
		return t.Name
	default:
		return "?"
	}
}

func visibilityOf(name string) domain.Visibility {
	if name == "" {
		return domain.VisibilityPrivate
	}
	if name[0] >= 'A' && name[0] <= 'Z' {
		return domain.VisibilityPublic
	}
	return domain.VisibilityPrivate
}

func commentText(g *ast.CommentGroup) string {
	if g == nil {
		return ""
	}
	return strings.TrimSpace(g.Text())
}

func funcSignature(fset *token.FileSet, d *ast.FuncDecl) string {
	var b strings.Builder
	b.WriteString("func ")
	if d.Recv != nil && len(d.Recv.List) > 0 {
		b.WriteString("(")
		b.WriteString(receiverTypeName(d.Recv.List[0].Type))
		b.WriteString(") ")
	}
	b.WriteString(d.Name.Name)
	b.WriteString("(")
	for i, field := range d.Type.Params.List {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(exprString(field.Type))
	}
	b.WriteString(")")
	if d.Type.Results != nil {
		b.WriteString(" ")
		if len(d.Type.Results.List) > 1 {
			b.WriteString("(")
		}
		for i, field := range d.Type.Results.List {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(exprString(field.Type))
		}
		if len(d.Type.Results.List) > 1 {
			b.WriteString(")")
		}
	}
	return b.String()
}

// exprString renders a type expression without importing go/printer,
// covering the common shapes (identifiers, pointers, selectors,
// slices) that show up in signatures.
func exprString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + exprString(t.X)
	case *ast.SelectorExpr:
		return exprString(t.X) + "." + t.Sel.Name
	case *ast.ArrayType:
		return "[]" + exprString(t.Elt)
	case *ast.Ellipsis:
		return "..." + exprString(t.Elt)
	case *ast.MapType:
		return "map[" + exprString(t.Key) + "]" + exprString(t.Value)
	case *ast.InterfaceType:
		return "interface{}"
	default:
		return "any"
	}
}
