package ast

// Inspect traverses the tree rooted at node in depth-first order, calling
// f for each node. If f returns false the children of that node are
// skipped. Nil nodes are never passed to f.
func Inspect(node Node, f func(Node) bool) {
	if node == nil || isNilNode(node) || !f(node) {
		return
	}

	switch n := node.(type) {
	case *File:
		for _, d := range n.Decls {
			Inspect(d, f)
		}
	case *FuncDecl:
		Inspect(n.ReturnType, f)
		inspectIdent(n.Name, f)
		for _, p := range n.Params {
			Inspect(p, f)
		}
		if n.Body != nil {
			Inspect(n.Body, f)
		}
	case *Param:
		Inspect(n.Type, f)
		inspectIdent(n.Name, f)
	case *VarDecl:
		Inspect(n.Type, f)
		for _, s := range n.Specs {
			Inspect(s, f)
		}
	case *VarSpec:
		inspectIdent(n.Name, f)
		inspectExpr(n.ArrayLen, f)
		inspectExpr(n.Init, f)
		for _, e := range n.InitList {
			Inspect(e, f)
		}

	case *BlockStmt:
		for _, s := range n.Statements {
			Inspect(s, f)
		}
	case *ExprStmt:
		inspectExpr(n.Expression, f)
	case *IfStmt:
		inspectExpr(n.Cond, f)
		inspectStmt(n.Then, f)
		inspectStmt(n.Else, f)
	case *SwitchStmt:
		inspectExpr(n.Tag, f)
		for _, c := range n.Cases {
			Inspect(c, f)
		}
	case *CaseClause:
		inspectExpr(n.Value, f)
		for _, s := range n.Body {
			Inspect(s, f)
		}
	case *WhileStmt:
		inspectExpr(n.Cond, f)
		inspectStmt(n.Body, f)
	case *DoWhileStmt:
		inspectStmt(n.Body, f)
		inspectExpr(n.Cond, f)
	case *ForStmt:
		inspectStmt(n.Init, f)
		inspectExpr(n.Cond, f)
		inspectExpr(n.Post, f)
		inspectStmt(n.Body, f)
	case *ReturnStmt:
		inspectExpr(n.Value, f)
	case *GotoStmt:
		inspectIdent(n.Label, f)
	case *LabeledStmt:
		inspectIdent(n.Label, f)
		inspectStmt(n.Stmt, f)

	case *BinaryExpr:
		Inspect(n.Left, f)
		Inspect(n.Right, f)
	case *UnaryExpr:
		Inspect(n.Operand, f)
	case *AssignExpr:
		Inspect(n.Target, f)
		Inspect(n.Value, f)
	case *CondExpr:
		Inspect(n.Cond, f)
		Inspect(n.Then, f)
		Inspect(n.Else, f)
	case *CommaExpr:
		for _, e := range n.List {
			Inspect(e, f)
		}
	case *CallExpr:
		Inspect(n.Callee, f)
		for _, a := range n.Args {
			Inspect(a, f)
		}
	case *IndexExpr:
		Inspect(n.Object, f)
		Inspect(n.Index, f)
	case *MemberExpr:
		Inspect(n.Object, f)
	case *CastExpr:
		Inspect(n.Type, f)
		Inspect(n.Operand, f)
	case *SizeofExpr:
		inspectExpr(n.Operand, f)
		if n.Type != nil {
			Inspect(n.Type, f)
		}
	}
}

func inspectExpr(e Expr, f func(Node) bool) {
	if e != nil {
		Inspect(e, f)
	}
}

func inspectStmt(s Stmt, f func(Node) bool) {
	if s != nil {
		Inspect(s, f)
	}
}

func inspectIdent(id *Ident, f func(Node) bool) {
	if id != nil {
		Inspect(id, f)
	}
}

// isNilNode catches typed nil pointers stored in a Node interface.
func isNilNode(n Node) bool {
	switch v := n.(type) {
	case *TypeSpec:
		return v == nil
	case *BlockStmt:
		return v == nil
	case *Ident:
		return v == nil
	}
	return false
}
