package codeintel

import "go/ast"

// complexityOf computes a cyclomatic-style complexity: one decision
// point per branch, loop, guard, or switch/select arm, plus one per
// logical AND/OR operator, on top of a baseline of 1. Mirrors
// cortex-parser's "complexity > 1 for a function with nested branches"
// behavior (confirmed by test_parse_complexity_calculation).
func complexityOf(body *ast.BlockStmt) int {
	complexity := 1
	if body == nil {
		return complexity
	}

	ast.Inspect(body, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.IfStmt:
			complexity++
		case *ast.ForStmt:
			complexity++
		case *ast.RangeStmt:
			complexity++
		case *ast.CaseClause:
			complexity++
		case *ast.CommClause:
			complexity++
		case *ast.BinaryExpr:
			if node.Op.String() == "&&" || node.Op.String() == "||" {
				complexity++
			}
		}
		return true
	})

	return complexity
}
