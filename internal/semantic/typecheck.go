package semantic

import (
	"fmt"

	"github.com/hassan/ccompiler/internal/diag"
	"github.com/hassan/ccompiler/internal/lexer"
	"github.com/hassan/ccompiler/internal/parser/ast"
	"github.com/hassan/ccompiler/internal/semantic/types"
	"github.com/hassan/ccompiler/internal/symtab"
)

// TypeCheck computes the type of every expression in file and checks each
// binary operator, assignment, initializer, call argument, condition and
// return value against the compatibility table. It needs the names
// resolved by Analyze; the computed types are stored in res.Types.
func (a *Analyzer) TypeCheck(file *ast.File, res *Result) diag.List {
	if file == nil || res == nil || res.Table == nil {
		return diag.List{diag.Errorf(diag.KindPipeline, 0, 0, "no symbol table to type check against").WithCode(CodeNoInput)}
	}
	tc := &typeChecker{a: a, res: res}
	if tc.res.Types == nil {
		tc.res.Types = make(map[ast.Expr]types.Type)
	}
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.VarDecl:
			tc.varDecl(d)
		case *ast.FuncDecl:
			if d.Body == nil {
				continue
			}
			tc.ret = typeOf(d.ReturnType)
			tc.fnName = ""
			if d.Name != nil {
				tc.fnName = d.Name.Name
			}
			tc.stmt(d.Body)
		}
	}
	return tc.diags
}

type typeChecker struct {
	a     *Analyzer
	res   *Result
	diags diag.List

	ret    types.Type
	fnName string
}

func (tc *typeChecker) varDecl(d *ast.VarDecl) {
	for _, spec := range d.Specs {
		target := specType(spec)
		name := ""
		if spec.Name != nil {
			name = spec.Name.Name
		}
		if spec.Init != nil {
			t := tc.expr(spec.Init)
			tc.check(spec.Init, target, t, "=", fmt.Sprintf("%s = %s", name, ast.ExprString(spec.Init)))
		}
		elem := types.Elem(target)
		for _, e := range spec.InitList {
			t := tc.expr(e)
			if elem.Known() {
				tc.check(e, elem, t, "=", ast.ExprString(e))
			}
		}
		if spec.ArrayLen != nil {
			if t := tc.expr(spec.ArrayLen); t.Known() && !types.IsInteger(t) {
				tc.errorf(spec.ArrayLen, CodeTypeMismatch, "array size of '%s' has non-integer type '%s'", name, t).
					suggest("use an integer constant for the array size")
			}
		}
	}
}

func (tc *typeChecker) stmt(s ast.Stmt) {
	switch n := s.(type) {
	case nil:
	case *ast.VarDecl:
		tc.varDecl(n)
	case *ast.BlockStmt:
		for _, st := range n.Statements {
			tc.stmt(st)
		}
	case *ast.ExprStmt:
		tc.expr(n.Expression)
	case *ast.IfStmt:
		tc.condition(n.Cond, "if")
		tc.stmt(n.Then)
		tc.stmt(n.Else)
	case *ast.WhileStmt:
		tc.condition(n.Cond, "while")
		tc.stmt(n.Body)
	case *ast.DoWhileStmt:
		tc.stmt(n.Body)
		tc.condition(n.Cond, "do-while")
	case *ast.ForStmt:
		tc.stmt(n.Init)
		tc.condition(n.Cond, "for")
		tc.expr(n.Post)
		tc.stmt(n.Body)
	case *ast.SwitchStmt:
		tag := tc.expr(n.Tag)
		if tag.Known() && !types.IsInteger(tag) {
			tc.errorf(n.Tag, CodeTypeMismatch, "switch expression has non-integer type '%s'", tag).
				suggest("switch only works on integer and char values")
		}
		for _, c := range n.Cases {
			tc.expr(c.Value)
			for _, st := range c.Body {
				tc.stmt(st)
			}
		}
	case *ast.ReturnStmt:
		tc.returnStmt(n)
	case *ast.LabeledStmt:
		tc.stmt(n.Stmt)
	}
}

func (tc *typeChecker) condition(e ast.Expr, keyword string) {
	if e == nil {
		return
	}
	t := tc.expr(e)
	if t.Known() && !types.IsBoolean(t) {
		tc.errorf(e, CodeTypeMismatch, "condition of '%s' has type '%s', which is not a truth value", keyword, t).
			suggest("compare the value explicitly, e.g. 'x != 0'")
	}
}

func (tc *typeChecker) returnStmt(r *ast.ReturnStmt) {
	if r.Value == nil {
		if tc.ret.Known() && tc.ret != types.Void {
			tc.warnf(r.ReturnPos, CodeReturnType, "function '%s' should return a value of type '%s'", tc.fnName, tc.ret).
				suggest("return a value")
		}
		return
	}
	t := tc.expr(r.Value)
	if tc.ret == types.Void {
		tc.errorf(r.Value, CodeReturnType, "void function '%s' returns a value", tc.fnName).
			suggest("remove the return value or change the return type")
		return
	}
	tc.check(r.Value, tc.ret, t, "=", "return "+ast.ExprString(r.Value))
}

// expr returns the type of e and records it.
func (tc *typeChecker) expr(e ast.Expr) types.Type {
	if e == nil {
		return types.Unknown
	}
	t := tc.typeOf(e)
	tc.res.Types[e] = t
	return t
}

func (tc *typeChecker) typeOf(e ast.Expr) types.Type {
	switch n := e.(type) {
	case *ast.Literal:
		return literalType(n)
	case *ast.Ident:
		if sym := tc.res.Resolved[n]; sym != nil {
			return sym.Type
		}
		return types.Unknown
	case *ast.BinaryExpr:
		l, r := tc.expr(n.Left), tc.expr(n.Right)
		op := n.Op()
		tc.check(n, l, r, op, ast.ExprString(n))
		switch types.FamilyOf(op) {
		case types.FamilyArithmetic:
			return types.Arithmetic(l, r)
		case types.FamilyBitwise:
			if types.IsInteger(l) {
				return types.Normalize(string(l))
			}
			return types.Int
		}
		return types.Bool
	case *ast.UnaryExpr:
		t := tc.expr(n.Operand)
		switch n.Op() {
		case "!":
			return types.Bool
		case "*":
			return types.Elem(t)
		case "&":
			return types.PointerTo(t)
		case "~":
			if t.Known() && !types.IsInteger(t) {
				tc.errorf(n, CodeTypeMismatch, "operator '~' needs an integer operand, not '%s'", t).
					suggest("apply '~' to an integer value")
			}
		case "-", "+":
			if t.Known() && !types.IsNumeric(t) {
				tc.errorf(n, CodeTypeMismatch, "unary '%s' needs a numeric operand, not '%s'", n.Op(), t).
					suggest("apply the sign to a number")
			}
		}
		return t
	case *ast.AssignExpr:
		target, value := tc.expr(n.Target), tc.expr(n.Value)
		if id, ok := n.Target.(*ast.Ident); ok {
			if sym := tc.res.Resolved[id]; sym != nil && !sym.CanAssign() {
				tc.errorf(n, CodeTypeMismatch, "cannot assign to %s '%s'", constKind(sym), sym.Name).
					suggest(fmt.Sprintf("'%s' is declared at line %d", sym.Name, sym.Line()))
				return target
			}
		}
		tc.check(n, target, value, n.Op(), ast.ExprString(n))
		return target
	case *ast.CondExpr:
		tc.condition(n.Cond, "?:")
		th, el := tc.expr(n.Then), tc.expr(n.Else)
		if types.IsNumeric(th) && types.IsNumeric(el) {
			return types.Arithmetic(th, el)
		}
		if th.Known() {
			return th
		}
		return el
	case *ast.CommaExpr:
		t := types.Unknown
		for _, x := range n.List {
			t = tc.expr(x)
		}
		return t
	case *ast.CallExpr:
		return tc.call(n)
	case *ast.IndexExpr:
		obj, idx := tc.expr(n.Object), tc.expr(n.Index)
		if idx.Known() && !types.IsInteger(idx) {
			tc.errorf(n.Index, CodeTypeMismatch, "array index has non-integer type '%s'", idx).
				suggest("index arrays with an integer")
		}
		return types.Elem(obj)
	case *ast.MemberExpr:
		tc.expr(n.Object)
		return types.Unknown
	case *ast.CastExpr:
		tc.expr(n.Operand)
		return typeOf(n.Type)
	case *ast.SizeofExpr:
		tc.expr(n.Operand)
		return types.Int
	}
	return types.Unknown
}

func (tc *typeChecker) call(c *ast.CallExpr) types.Type {
	argTypes := make([]types.Type, len(c.Args))
	for i, arg := range c.Args {
		argTypes[i] = tc.expr(arg)
	}
	id, ok := c.Callee.(*ast.Ident)
	if !ok {
		tc.expr(c.Callee)
		return types.Unknown
	}
	sym := tc.res.Resolved[id]
	if sym == nil {
		if IsLibraryFunction(id.Name) {
			return LibraryReturn(id.Name)
		}
		return types.Unknown
	}
	if sym.Kind != symtab.SymbolFunction {
		return types.Unknown
	}
	for i, p := range sym.Params {
		if i >= len(argTypes) {
			break
		}
		v := types.Check(p.Type, argTypes[i], "=")
		switch {
		case !v.OK:
			tc.errorf(c.Args[i], CodeTypeMismatch, "argument %d of '%s' has type '%s', parameter '%s' has type '%s'",
				i+1, sym.Name, argTypes[i], p.Name, p.Type).
				suggest(v.Details)
		case v.Warning != "":
			tc.warnAt(c.Args[i], CodeTypeWarning, "argument %d of '%s': %s", i+1, sym.Name, v.Warning)
		}
	}
	return sym.Type
}

// check applies the compatibility table and reports the verdict at e.
func (tc *typeChecker) check(e ast.Expr, left, right types.Type, op, text string) {
	c := types.Check(left, right, op)
	switch {
	case !c.OK:
		tc.errorf(e, CodeTypeMismatch, "type mismatch in '%s': '%s' %s '%s'", text, left, op, right).
			suggest(c.Details + "; " + familyHint(op))
	case c.Warning != "":
		tc.warnAt(e, CodeTypeWarning, "%s in '%s'", c.Warning, text)
	}
}

func familyHint(op string) string {
	switch types.FamilyOf(op) {
	case types.FamilyArithmetic:
		return "convert the operands to a common numeric type"
	case types.FamilyAssignment:
		return "convert the value to the variable's type or change the declaration"
	case types.FamilyEquality, types.FamilyOrdering:
		return "compare values of the same kind"
	case types.FamilyLogical:
		return "use numeric or boolean operands"
	case types.FamilyBitwise:
		return "use integer operands"
	}
	return "check the operand types"
}

func literalType(l *ast.Literal) types.Type {
	switch l.Kind {
	case ast.LitInt:
		return types.Int
	case ast.LitFloat:
		return types.Float
	case ast.LitChar:
		return types.Char
	case ast.LitString:
		return types.String
	case ast.LitBool:
		return types.Bool
	case ast.LitNull:
		return types.Pointer
	}
	return types.Unknown
}

func constKind(sym *symtab.Symbol) string {
	if sym.Constant {
		return "constant"
	}
	return sym.Kind.String()
}

func (tc *typeChecker) errorf(e ast.Node, code, format string, args ...any) pending {
	pos := e.Pos()
	tc.diags = append(tc.diags, diag.Errorf(diag.KindSemantic, pos.Line, pos.Column, format, args...).
		WithCode(code).WithExcerpt(tc.a.src))
	return pending{list: &tc.diags, i: len(tc.diags) - 1}
}

func (tc *typeChecker) warnAt(e ast.Node, code, format string, args ...any) pending {
	return tc.warnf(e.Pos(), code, format, args...)
}

func (tc *typeChecker) warnf(pos lexer.Position, code, format string, args ...any) pending {
	tc.diags = append(tc.diags, diag.Warnf(diag.KindSemantic, pos.Line, pos.Column, format, args...).
		WithCode(code).WithExcerpt(tc.a.src))
	return pending{list: &tc.diags, i: len(tc.diags) - 1}
}
