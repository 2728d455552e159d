package analyzer

import (
	"strings"

	"github.com/funvibe/mscript/internal/ast"
	"github.com/funvibe/mscript/internal/diagnostics"
	"github.com/funvibe/mscript/internal/symbols"
	"github.com/funvibe/mscript/internal/typesystem"
)

// analyzeHeaders resolves struct layouts, enum values, function signatures
// and global types. Struct layouts are registered before anything refers to
// them, so forward references are fine.
func (w *walker) analyzeHeaders(program *ast.Program, natives []*ast.FunctionDeclaration) {
	for _, sd := range w.structs {
		w.symbolTable.DefineStruct(w.buildStruct(sd))
	}
	w.checkStructCycles()

	for _, ed := range w.enums {
		w.symbolTable.DefineEnum(w.buildEnum(ed))
	}

	for _, fd := range natives {
		if sig, ok := w.signatures[fd]; ok {
			w.buildSignature(fd, sig)
		}
	}
	for _, fd := range w.functions {
		w.buildSignature(fd, w.signatures[fd])
	}

	for _, vd := range w.globals {
		w.analyzeGlobal(vd)
	}
}

// resolveType converts a type node. Unknown names are reported as A004 and
// yield nil.
func (w *walker) resolveType(t ast.Type) typesystem.Type {
	switch tt := t.(type) {
	case nil:
		return typesystem.Void
	case *ast.NamedType:
		sym, ok := w.symbolTable.Find(tt.Name.Value)
		if !ok || sym.Kind != symbols.TypeSymbol {
			w.errorf(diagnostics.ErrA004, tt.Token, "unknown type %s", tt.Name.Value)
			return nil
		}
		return sym.Type
	case *ast.ArrayType:
		elem := w.resolveType(tt.Element)
		if elem == nil {
			return nil
		}
		if typesystem.IsVoid(elem) {
			w.errorf(diagnostics.ErrA014, tt.Token, "array element type cannot be void")
			return nil
		}
		return typesystem.TArray{Elem: elem}
	}
	return nil
}

// resolveValueType resolves the type of a variable, member or parameter,
// which may not be void.
func (w *walker) resolveValueType(t ast.Type, what string) typesystem.Type {
	resolved := w.resolveType(t)
	if resolved != nil && typesystem.IsVoid(resolved) {
		w.errorf(diagnostics.ErrA014, t.GetToken(), "%s cannot have type void", what)
		return nil
	}
	return resolved
}

func (w *walker) buildStruct(sd *ast.StructDeclaration) *typesystem.StructDef {
	def := &typesystem.StructDef{Name: sd.Name.Value}
	seen := make(map[string]bool)
	for _, m := range sd.Members {
		if seen[m.Name.Value] {
			w.errorf(diagnostics.ErrA013, m.Name.Token, "duplicate member %s in struct %s", m.Name.Value, sd.Name.Value)
			continue
		}
		seen[m.Name.Value] = true
		t := w.resolveValueType(m.Type, "member "+sd.Name.Value+"."+m.Name.Value)
		if t == nil {
			continue
		}
		def.Fields = append(def.Fields, typesystem.Field{Name: m.Name.Value, Type: t})
	}
	return def
}

// checkStructCycles rejects structs that contain themselves through
// struct-typed members. Containment through arrays is allowed: an array
// may be empty, so such values stay finite.
func (w *walker) checkStructCycles() {
	for _, sd := range w.structs {
		if path := typesystem.ContainmentPath(w.symbolTable.GetStruct, sd.Name.Value); path != nil {
			w.errorf(diagnostics.ErrA005, sd.Name.Token, "recursive struct %s: %s contains itself through %s",
				sd.Name.Value, sd.Name.Value, strings.Join(path, " -> "))
		}
	}
}

// buildEnum assigns backing values: ordinal position by default, or the
// explicit value, with later members counting on from the previous one.
func (w *walker) buildEnum(ed *ast.EnumDeclaration) *typesystem.EnumDef {
	def := &typesystem.EnumDef{Name: ed.Name.Value}
	names := make(map[string]bool)
	values := make(map[int64]string)
	next := int64(0)
	for _, m := range ed.Members {
		value := next
		if m.Value != nil {
			value = m.Value.Value
		}
		next = value + 1

		if names[m.Name.Value] {
			w.errorf(diagnostics.ErrA013, m.Name.Token, "duplicate member %s in enum %s", m.Name.Value, ed.Name.Value)
			continue
		}
		names[m.Name.Value] = true
		if other, dup := values[value]; dup {
			w.errorf(diagnostics.ErrA013, m.Name.Token, "enum %s: %s has the same value %d as %s", ed.Name.Value, m.Name.Value, value, other)
			continue
		}
		values[value] = m.Name.Value
		def.Members = append(def.Members, typesystem.EnumMember{Name: m.Name.Value, Value: value})
	}
	return def
}

func (w *walker) buildSignature(fd *ast.FunctionDeclaration, sig *typesystem.Signature) {
	seen := make(map[string]bool)
	for _, p := range fd.Parameters {
		if seen[p.Name.Value] {
			w.errorf(diagnostics.ErrA002, p.Name.Token, "duplicate parameter %s in %s", p.Name.Value, fd.Name.Value)
		}
		seen[p.Name.Value] = true
		t := w.resolveValueType(p.Type, "parameter "+p.Name.Value)
		sig.Params = append(sig.Params, typesystem.Param{Name: p.Name.Value, Type: t})
	}
	sig.ReturnType = w.resolveType(fd.ReturnType)

	sym := w.ResolutionMap[fd]
	sym.Type = sig.Func()
	w.symbolTable.Define(sym)
	w.ResolutionMap[fd] = sym
}

// analyzeGlobal types a global. Initializers must be constant expressions
// so that creating a VM cannot fail.
func (w *walker) analyzeGlobal(vd *ast.VarDeclaration) {
	sym := w.ResolutionMap[vd]
	var declared typesystem.Type
	if vd.Type != nil {
		declared = w.resolveValueType(vd.Type, "variable "+vd.Name.Value)
	}

	t := declared
	if vd.Value != nil {
		if !w.isConstant(vd.Value) {
			w.errorf(diagnostics.ErrA011, vd.Value.GetToken(), "initializer of global %s must be a constant expression", vd.Name.Value)
		} else if actual := w.valueExpr(vd.Value, declared); actual != nil {
			if declared == nil && vd.Type == nil {
				t = actual
			} else if declared != nil && !typesystem.Equal(declared, actual) {
				w.errorf(diagnostics.ErrA003, vd.Value.GetToken(), "cannot initialize %s of type %s with %s", vd.Name.Value, typeName(declared), typeName(actual))
			}
		}
	}

	if t == nil {
		return
	}
	sym.Type = t
	w.symbolTable.SetGlobalType(sym.Index, t)
	w.symbolTable.Define(sym)
	w.ResolutionMap[vd] = sym
	w.TypeMap[vd] = t
}

// isConstant reports whether expr is built only from literals, negated
// numeric literals, enum members and struct or array literals of those.
func (w *walker) isConstant(expr ast.Expression) bool {
	switch e := expr.(type) {
	case *ast.IntegerLiteral, *ast.FloatLiteral, *ast.StringLiteral, *ast.BooleanLiteral:
		return true
	case *ast.PrefixExpression:
		switch e.Right.(type) {
		case *ast.IntegerLiteral, *ast.FloatLiteral:
			return e.Operator == "-"
		}
		return false
	case *ast.MemberExpression:
		ident, ok := e.Left.(*ast.Identifier)
		if !ok {
			return false
		}
		sym, ok := w.symbolTable.Find(ident.Value)
		if !ok || sym.Kind != symbols.TypeSymbol {
			return false
		}
		_, isEnum := sym.Type.(typesystem.TEnum)
		return isEnum
	case *ast.StructLiteral:
		for _, f := range e.Fields {
			if !w.isConstant(f.Value) {
				return false
			}
		}
		return true
	case *ast.ArrayLiteral:
		for _, el := range e.Elements {
			if !w.isConstant(el) {
				return false
			}
		}
		return true
	}
	return false
}
