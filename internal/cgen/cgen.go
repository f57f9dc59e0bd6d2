// Package cgen is the experimental C code generator behind `build --emit-c`.
// It is an external collaborator specified only at its interface (spec.md
// §1 non-goals: "C source emission"); this package emits a minimal C
// translation unit of function declarations only, and reports an explicit
// error for any function body rather than silently producing wrong C. Grounded on original_source/compiler/src/c_backend.c's
// existence as confirmation that stub-level scope (not a full backend) is
// the right depth here.
package cgen

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/jonaskivi/rae-sub000/internal/ast"
	"github.com/jonaskivi/rae-sub000/internal/compiler"
)

// Generate renders a minimal C source file declaring one C function per
// `func` declaration in modules (extern functions become forward
// declarations only) plus a C `main` that returns 0 without calling anything.
// Function bodies are not translated (non-goal); Generate returns an error
// naming every non-extern function with a non-empty body, since emitting a
// body stub silently would misrepresent what this backend supports.
func Generate(modules []compiler.ModuleDecls) (string, error) {
	var b strings.Builder
	b.WriteString("/* generated by rae build --emit-c; experimental, signatures only */\n")
	b.WriteString("#include <stdint.h>\n\n")

	var bodied []string
	for _, m := range modules {
		for _, d := range m.Decls {
			fd, ok := d.(*ast.FuncDecl)
			if !ok {
				continue
			}
			sig := signature(fd)
			if fd.IsExtern {
				fmt.Fprintf(&b, "extern %s;\n", sig)
				continue
			}
			fmt.Fprintf(&b, "%s;\n", sig)
			if fd.Body != nil && len(fd.Body.Stmts) > 0 {
				bodied = append(bodied, fd.Name)
			}
		}
	}
	if len(bodied) > 0 {
		return "", errors.Errorf("cgen: function body translation is not implemented (non-goal); functions with bodies: %s",
			strings.Join(bodied, ", "))
	}
	b.WriteString("\nint main(void) { return 0; }\n")
	return b.String(), nil
}

func signature(fd *ast.FuncDecl) string {
	params := make([]string, len(fd.Params))
	for i, p := range fd.Params {
		params[i] = fmt.Sprintf("%s %s", cType(p.Type), p.Name)
	}
	ret := "void"
	if len(fd.Returns) == 1 {
		ret = cType(fd.Returns[0].Type)
	} else if len(fd.Returns) > 1 {
		ret = "void /* multi-value return: unsupported by this backend */"
	}
	return fmt.Sprintf("%s %s(%s)", ret, fd.Name, strings.Join(params, ", "))
}

func cType(t *ast.TypeRef) string {
	if t == nil || len(t.Path) == 0 {
		return "void*"
	}
	switch t.Path[len(t.Path)-1] {
	case "int":
		return "int64_t"
	case "float":
		return "double"
	case "bool":
		return "int"
	case "char":
		return "uint32_t"
	case "string":
		return "const char*"
	default:
		return "void*"
	}
}
