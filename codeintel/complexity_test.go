package codeintel

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"
)

func parseFuncBody(t *testing.T, src string) *ast.BlockStmt {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "t.go", "package t\nfunc f() {\n"+src+"\n}", 0)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return file.Decls[0].(*ast.FuncDecl).Body
}

func TestComplexityOf_BaselineIsOne(t *testing.T) {
	body := parseFuncBody(t, "_ = 1")
	if c := complexityOf(body); c != 1 {
		t.Fatalf("expected baseline complexity 1, got %d", c)
	}
}

func TestComplexityOf_NilBodyIsOne(t *testing.T) {
	if c := complexityOf(nil); c != 1 {
		t.Fatalf("expected complexity 1 for nil body, got %d", c)
	}
}

func TestComplexityOf_CountsBranchesAndLoops(t *testing.T) {
	body := parseFuncBody(t, `
if true {
	for i := 0; i < 10; i++ {
		_ = i
	}
}
`)
	if c := complexityOf(body); c < 3 {
		t.Fatalf("expected complexity >= 3 for nested if+for, got %d", c)
	}
}

func TestComplexityOf_CountsLogicalOperators(t *testing.T) {
	plain := complexityOf(parseFuncBody(t, "if true { _ = 1 }"))
	withLogical := complexityOf(parseFuncBody(t, "if true && false { _ = 1 }"))
	if withLogical <= plain {
		t.Fatalf("expected logical operator to add weight: plain=%d withLogical=%d", plain, withLogical)
	}
}
