// Package printer pretty-prints an internal/ast.Module back to source text
// (spec.md §6, `format` command). It is an external collaborator per
// spec.md §1 ("specified only at its interface") and is grounded on the
// teacher's "walk a structure, emit formatted text" dump style
// (lang/retro/dump.go, cmd/retro/dump.go's dumpSlice/DumpVM), generalized
// from dumping VM stacks to rendering an AST, using internal/rlog's
// ErrWriter the same way cmd/retro/dump.go wraps its output in
// internal/ngi.ErrWriter.
package printer

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jonaskivi/rae-sub000/internal/ast"
	"github.com/jonaskivi/rae-sub000/internal/rlog"
	"github.com/jonaskivi/rae-sub000/internal/token"
)

// Print renders mod as source text. comments is the separate comment list
// internal/lexer produces alongside the token stream (spec.md §4.1: block
// and line comments never reach the parser); trailing same-line comments are
// reattached to the statement or declaration they follow, matching
// original_source's comment re-attachment behavior (SPEC_FULL.md
// "Supplemented features").
func Print(mod *ast.Module, comments []token.Comment) (string, error) {
	p := &printer{trailing: attachTrailing(comments)}
	var buf bytes.Buffer
	w := rlog.NewErrWriter(&buf)

	for _, im := range mod.Imports {
		kw := "import"
		if im.Export {
			kw = "export"
		}
		fmt.Fprintf(w, "%s %q\n", kw, im.Path)
	}
	if len(mod.Imports) > 0 {
		fmt.Fprintln(w)
	}

	for i, d := range mod.Decls {
		if i > 0 {
			fmt.Fprintln(w)
		}
		p.printDecl(w, d, 0)
	}
	if w.Err != nil {
		return "", w.Err
	}
	return buf.String(), nil
}

// attachTrailing indexes comments by line number so printDecl/printStmt can
// look up "is there a same-line trailing comment" the way original_source
// re-attaches a trailing line comment to the statement on its source line.
func attachTrailing(comments []token.Comment) map[int]string {
	m := make(map[int]string, len(comments))
	for _, c := range comments {
		if c.Block {
			continue
		}
		m[c.Pos.Line] = strings.TrimSpace(c.Text)
	}
	return m
}

type printer struct {
	trailing map[int]string
}

func (p *printer) trailingFor(line int) string {
	if s, ok := p.trailing[line]; ok {
		return "  # " + s
	}
	return ""
}

func indent(n int) string { return strings.Repeat("  ", n) }

func (p *printer) printDecl(w *rlog.ErrWriter, d ast.Decl, depth int) {
	switch decl := d.(type) {
	case *ast.TypeDecl:
		p.printTypeDecl(w, decl, depth)
	case *ast.EnumDecl:
		p.printEnumDecl(w, decl, depth)
	case *ast.FuncDecl:
		p.printFuncDecl(w, decl, depth)
	default:
		fmt.Fprintf(w, "%s# <unknown decl %T>\n", indent(depth), d)
	}
}

func (p *printer) printTypeDecl(w *rlog.ErrWriter, d *ast.TypeDecl, depth int) {
	fmt.Fprintf(w, "%stype %s%s", indent(depth), d.Name, genericsOf(d.Generics))
	if d.Visibility != ast.VisDefault {
		fmt.Fprintf(w, ": %s", visStr(d.Visibility))
	}
	fmt.Fprintf(w, " {%s\n", p.trailingFor(d.Pos.Line))
	for _, f := range d.Fields {
		fmt.Fprintf(w, "%s%s: %s\n", indent(depth+1), f.Name, printType(f.Type))
	}
	fmt.Fprintf(w, "%s}\n", indent(depth))
}

func (p *printer) printEnumDecl(w *rlog.ErrWriter, d *ast.EnumDecl, depth int) {
	fmt.Fprintf(w, "%senum %s {%s\n", indent(depth), d.Name, p.trailingFor(d.Pos.Line))
	for _, c := range d.Cases {
		fmt.Fprintf(w, "%s%s,\n", indent(depth+1), c)
	}
	fmt.Fprintf(w, "%s}\n", indent(depth))
}

func genericsOf(gs []string) string {
	if len(gs) == 0 {
		return ""
	}
	return "[" + strings.Join(gs, ", ") + "]"
}

func visStr(v ast.Visibility) string {
	switch v {
	case ast.VisPub:
		return "pub"
	case ast.VisPriv:
		return "priv"
	case ast.VisPack:
		return "pack"
	default:
		return ""
	}
}

func (p *printer) printFuncDecl(w *rlog.ErrWriter, d *ast.FuncDecl, depth int) {
	ind := indent(depth)
	if d.IsExtern {
		fmt.Fprint(w, ind, "extern ")
	} else {
		fmt.Fprint(w, ind)
	}
	fmt.Fprintf(w, "func %s%s(", d.Name, genericsOf(d.Generics))
	for i, prm := range d.Params {
		if i > 0 {
			fmt.Fprint(w, ", ")
		}
		fmt.Fprintf(w, "%s: %s", prm.Name, printType(prm.Type))
	}
	fmt.Fprint(w, ")")
	if len(d.Modifiers) > 0 || len(d.Returns) > 0 {
		fmt.Fprint(w, ":")
	}
	if len(d.Modifiers) > 0 {
		fmt.Fprintf(w, " %s", strings.Join(d.Modifiers, " "))
	}
	if len(d.Returns) > 0 {
		fmt.Fprint(w, " ret ")
		for i, r := range d.Returns {
			if i > 0 {
				fmt.Fprint(w, ", ")
			}
			if r.Label != "" {
				fmt.Fprintf(w, "%s: ", r.Label)
			}
			fmt.Fprint(w, printType(r.Type))
		}
	}
	if d.Body == nil {
		fmt.Fprintf(w, "%s\n", p.trailingFor(d.Pos.Line))
		return
	}
	fmt.Fprintf(w, " {%s\n", p.trailingFor(d.Pos.Line))
	p.printBlock(w, d.Body, depth+1)
	fmt.Fprintf(w, "%s}\n", ind)
}

func printType(t *ast.TypeRef) string {
	if t == nil {
		return "?"
	}
	var b strings.Builder
	if t.IsOpt {
		b.WriteString("opt ")
	}
	if t.IsView {
		b.WriteString("view ")
	}
	if t.IsMod {
		b.WriteString("mod ")
	}
	if t.IsID {
		b.WriteString("id ")
	}
	if t.IsKey {
		b.WriteString("key ")
	}
	b.WriteString(strings.Join(t.Path, "."))
	if len(t.Args) > 0 {
		parts := make([]string, len(t.Args))
		for i, a := range t.Args {
			parts[i] = printType(a)
		}
		b.WriteString("[" + strings.Join(parts, ", ") + "]")
	}
	return b.String()
}

func (p *printer) printBlock(w *rlog.ErrWriter, b *ast.Block, depth int) {
	for _, s := range b.Stmts {
		p.printStmt(w, s, depth)
	}
}

func (p *printer) printStmt(w *rlog.ErrWriter, s ast.Stmt, depth int) {
	ind := indent(depth)
	switch st := s.(type) {
	case *ast.DefStmt:
		fmt.Fprintf(w, "%sdef %s", ind, st.Name)
		if st.Type != nil {
			fmt.Fprintf(w, ": %s", printType(st.Type))
		}
		fmt.Fprintf(w, " = %s%s\n", printExpr(st.Value), p.trailingFor(st.Pos.Line))
	case *ast.DestructureStmt:
		fmt.Fprint(w, ind, "def ")
		for i, b := range st.Bindings {
			if i > 0 {
				fmt.Fprint(w, ", def ")
			}
			fmt.Fprintf(w, "%s: %s", b.LocalName, b.ReturnName)
		}
		fmt.Fprintf(w, " = %s%s\n", printExpr(st.Call), p.trailingFor(st.Pos.Line))
	case *ast.AssignStmt:
		op := "="
		if st.IsBind {
			op = ":="
		}
		fmt.Fprintf(w, "%s%s %s %s%s\n", ind, printExpr(st.Target), op, printExpr(st.Value), p.trailingFor(st.Pos.Line))
	case *ast.ExprStmt:
		fmt.Fprintf(w, "%s%s%s\n", ind, printExpr(st.X), p.trailingFor(st.Pos.Line))
	case *ast.RetStmt:
		fmt.Fprint(w, ind, "ret")
		for i, v := range st.Values {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprint(w, " ")
			if v.Label != "" {
				fmt.Fprintf(w, "%s: ", v.Label)
			}
			fmt.Fprint(w, printExpr(v.Value))
		}
		fmt.Fprintf(w, "%s\n", p.trailingFor(st.Pos.Line))
	case *ast.IfStmt:
		fmt.Fprintf(w, "%sif %s {%s\n", ind, printExpr(st.Cond), p.trailingFor(st.Pos.Line))
		p.printBlock(w, st.Then, depth+1)
		fmt.Fprintf(w, "%s}", ind)
		if st.Else != nil {
			fmt.Fprint(w, " else {\n")
			p.printBlock(w, st.Else, depth+1)
			fmt.Fprintf(w, "%s}", ind)
		}
		fmt.Fprintln(w)
	case *ast.LoopStmt:
		p.printLoop(w, st, depth)
	case *ast.MatchStmt:
		fmt.Fprintf(w, "%smatch %s {%s\n", ind, printExpr(st.Subject), p.trailingFor(st.Pos.Line))
		for _, c := range st.Cases {
			if c.IsDefault {
				fmt.Fprintf(w, "%sdefault:\n", indent(depth+1))
			} else {
				fmt.Fprintf(w, "%scase %s:\n", indent(depth+1), printExpr(c.Pattern))
			}
			p.printBlock(w, c.Body, depth+2)
		}
		fmt.Fprintf(w, "%s}\n", ind)
	default:
		fmt.Fprintf(w, "%s# <unknown stmt %T>\n", ind, s)
	}
}

func (p *printer) printLoop(w *rlog.ErrWriter, st *ast.LoopStmt, depth int) {
	ind := indent(depth)
	if st.IsRange {
		fmt.Fprintf(w, "%sloop %s: int in %s {%s\n", ind, st.RangeVar, printExpr(st.RangeExpr), p.trailingFor(st.Pos.Line))
	} else if st.Init == nil && st.Step == nil {
		fmt.Fprintf(w, "%sloop ", ind)
		if st.Cond != nil {
			fmt.Fprintf(w, "%s ", printExpr(st.Cond))
		}
		fmt.Fprintf(w, "{%s\n", p.trailingFor(st.Pos.Line))
	} else {
		fmt.Fprintf(w, "%sloop ", ind)
		if st.Init != nil {
			var b bytes.Buffer
			ew := rlog.NewErrWriter(&b)
			p.printStmt(ew, st.Init, 0)
			fmt.Fprint(w, strings.TrimRight(b.String(), "\n"))
		}
		fmt.Fprint(w, "; ")
		if st.Cond != nil {
			fmt.Fprint(w, printExpr(st.Cond))
		}
		fmt.Fprint(w, "; ")
		if st.Step != nil {
			var b bytes.Buffer
			ew := rlog.NewErrWriter(&b)
			p.printStmt(ew, st.Step, 0)
			fmt.Fprint(w, strings.TrimRight(b.String(), "\n"))
		}
		fmt.Fprintf(w, " {%s\n", p.trailingFor(st.Pos.Line))
	}
	p.printBlock(w, st.Body, depth+1)
	fmt.Fprintf(w, "%s}\n", ind)
}

func printExpr(e ast.Expr) string {
	switch x := e.(type) {
	case *ast.Ident:
		return x.Name
	case *ast.IntegerLit:
		return x.Text
	case *ast.FloatLit:
		return x.Text
	case *ast.StringLit:
		return fmt.Sprintf("%q", x.Value)
	case *ast.InterpStringLit:
		var b strings.Builder
		b.WriteByte('"')
		for _, seg := range x.Segments {
			if seg.Expr == nil {
				b.WriteString(seg.Literal)
			} else {
				b.WriteByte('{')
				b.WriteString(printExpr(seg.Expr))
				b.WriteByte('}')
			}
		}
		b.WriteByte('"')
		return b.String()
	case *ast.CharLit:
		return fmt.Sprintf("'%c'", x.Value)
	case *ast.BoolLit:
		if x.Value {
			return "true"
		}
		return "false"
	case *ast.NoneLit:
		return "none"
	case *ast.BinaryExpr:
		return fmt.Sprintf("%s %s %s", printExpr(x.LHS), x.Op, printExpr(x.RHS))
	case *ast.UnaryExpr:
		if x.Op == token.KwNot || x.Op == token.KwSpawn {
			return fmt.Sprintf("%s %s", x.Op, printExpr(x.Operand))
		}
		return fmt.Sprintf("%s%s", x.Op, printExpr(x.Operand))
	case *ast.CallExpr:
		return printCallLike(printExpr(x.Callee), x.Args)
	case *ast.MemberExpr:
		return fmt.Sprintf("%s.%s", printExpr(x.Object), x.Name)
	case *ast.MethodCallExpr:
		return printCallLike(fmt.Sprintf("%s.%s", printExpr(x.Object), x.Name), x.Args)
	case *ast.IndexExpr:
		return fmt.Sprintf("%s[%s]", printExpr(x.Target), printExpr(x.Index))
	case *ast.ObjectLit:
		return printObjectLit(x)
	case *ast.ListLit:
		parts := make([]string, len(x.Elems))
		for i, el := range x.Elems {
			parts[i] = printExpr(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *ast.CollectionLit:
		parts := make([]string, len(x.Elems))
		for i, el := range x.Elems {
			if el.Key != nil {
				parts[i] = printExpr(el.Key) + ": " + printExpr(el.Value)
			} else {
				parts[i] = printExpr(el.Value)
			}
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *ast.RangeExpr:
		return fmt.Sprintf("%s..%s", printExpr(x.Low), printExpr(x.High))
	case *ast.MatchExpr:
		var b strings.Builder
		fmt.Fprintf(&b, "match %s { ", printExpr(x.Subject))
		for _, arm := range x.Arms {
			if arm.IsDefault {
				fmt.Fprint(&b, "default => ")
			} else {
				fmt.Fprintf(&b, "%s => ", printExpr(arm.Pattern))
			}
			fmt.Fprintf(&b, "%s, ", printExpr(arm.Value))
		}
		b.WriteString("}")
		return b.String()
	default:
		return fmt.Sprintf("<%T>", e)
	}
}

func printCallLike(callee string, args []ast.Arg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if a.Name != "" {
			parts[i] = a.Name + ": " + printExpr(a.Value)
		} else {
			parts[i] = printExpr(a.Value)
		}
	}
	return callee + "(" + strings.Join(parts, ", ") + ")"
}

func printObjectLit(x *ast.ObjectLit) string {
	var b strings.Builder
	b.WriteString("(")
	if x.Type != nil {
		b.WriteString(printType(x.Type))
		b.WriteString(": ")
	}
	fields := make([]string, len(x.Fields))
	for i, f := range x.Fields {
		fields[i] = f.Name + ": " + printExpr(f.Value)
	}
	b.WriteString(strings.Join(fields, ", "))
	b.WriteString(")")
	return b.String()
}

// DumpTree renders mod as an indented structural dump (spec.md §6's `parse`
// command: "dumps structured AST"), one node per line, children indented
// under their parent. Unlike Print, this is lossy-on-purpose toward source
// formatting and exists only to make the parser's output inspectable.
func DumpTree(mod *ast.Module) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Module %s (file=%s)\n", mod.Path, mod.FileName)
	for _, im := range mod.Imports {
		kw := "import"
		if im.Export {
			kw = "export"
		}
		fmt.Fprintf(&b, "  %s %q\n", kw, im.Path)
	}
	for _, d := range mod.Decls {
		dumpDecl(&b, d, 1)
	}
	return b.String()
}

func dline(b *strings.Builder, depth int, format string, args ...interface{}) {
	fmt.Fprint(b, indent(depth))
	fmt.Fprintf(b, format, args...)
	b.WriteString("\n")
}

func dumpDecl(b *strings.Builder, d ast.Decl, depth int) {
	switch decl := d.(type) {
	case *ast.TypeDecl:
		dline(b, depth, "TypeDecl %s%s %s", decl.Name, genericsOf(decl.Generics), visStr(decl.Visibility))
		for _, f := range decl.Fields {
			dline(b, depth+1, "Field %s: %s", f.Name, printType(f.Type))
		}
	case *ast.EnumDecl:
		dline(b, depth, "EnumDecl %s {%s}", decl.Name, strings.Join(decl.Cases, ", "))
	case *ast.FuncDecl:
		dline(b, depth, "FuncDecl %s%s extern=%v modifiers=%v", decl.Name, genericsOf(decl.Generics), decl.IsExtern, decl.Modifiers)
		for _, p := range decl.Params {
			dline(b, depth+1, "Param %s: %s", p.Name, printType(p.Type))
		}
		for _, r := range decl.Returns {
			dline(b, depth+1, "Return %s: %s", r.Label, printType(r.Type))
		}
		if decl.Body != nil {
			dumpBlock(b, decl.Body, depth+1)
		}
	default:
		dline(b, depth, "<unknown decl %T>", d)
	}
}

func dumpBlock(b *strings.Builder, blk *ast.Block, depth int) {
	for _, s := range blk.Stmts {
		dumpStmt(b, s, depth)
	}
}

func dumpStmt(b *strings.Builder, s ast.Stmt, depth int) {
	switch st := s.(type) {
	case *ast.DefStmt:
		dline(b, depth, "Def %s bind=%v = %s", st.Name, st.IsBind, printExpr(st.Value))
	case *ast.DestructureStmt:
		names := make([]string, len(st.Bindings))
		for i, bd := range st.Bindings {
			names[i] = bd.LocalName + ":" + bd.ReturnName
		}
		dline(b, depth, "Destructure [%s] = %s", strings.Join(names, ", "), printExpr(st.Call))
	case *ast.AssignStmt:
		dline(b, depth, "Assign %s bind=%v = %s", printExpr(st.Target), st.IsBind, printExpr(st.Value))
	case *ast.ExprStmt:
		dline(b, depth, "ExprStmt %s", printExpr(st.X))
	case *ast.RetStmt:
		parts := make([]string, len(st.Values))
		for i, v := range st.Values {
			parts[i] = v.Label + printExpr(v.Value)
		}
		dline(b, depth, "Ret [%s]", strings.Join(parts, ", "))
	case *ast.IfStmt:
		dline(b, depth, "If %s", printExpr(st.Cond))
		dumpBlock(b, st.Then, depth+1)
		if st.Else != nil {
			dline(b, depth, "Else")
			dumpBlock(b, st.Else, depth+1)
		}
	case *ast.LoopStmt:
		dline(b, depth, "Loop range=%v", st.IsRange)
		dumpBlock(b, st.Body, depth+1)
	case *ast.MatchStmt:
		dline(b, depth, "Match %s", printExpr(st.Subject))
		for _, c := range st.Cases {
			if c.IsDefault {
				dline(b, depth+1, "Default")
			} else {
				dline(b, depth+1, "Case %s", printExpr(c.Pattern))
			}
			dumpBlock(b, c.Body, depth+2)
		}
	default:
		dline(b, depth, "<unknown stmt %T>", s)
	}
}
