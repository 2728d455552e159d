package vm

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/funvibe/mscript/internal/ast"
	"github.com/funvibe/mscript/internal/config"
	"github.com/funvibe/mscript/internal/diagnostics"
	"github.com/funvibe/mscript/internal/symbols"
	"github.com/funvibe/mscript/internal/token"
	"github.com/funvibe/mscript/internal/typesystem"
)

// Local represents a local variable during compilation
type Local struct {
	Name  string
	Depth int // Scope depth where this local was declared
	Slot  int // Frame slot
}

// LoopContext tracks loop information for break/continue
type LoopContext struct {
	continueTarget int   // Offset continue jumps back to, or -1 when it lies ahead
	continueJumps  []int // Forward continue jumps to patch
	breakJumps     []int // Offsets of break jumps to patch
}

// Compiler lowers an analyzed AST into a Program. It trusts the analyzer:
// any inconsistency it meets is a defect, reported as C001.
type Compiler struct {
	program *Program

	// Symbol Table, Type Map and Resolution Map from the analyzer
	symbolTable   *symbols.SymbolTable
	typeMap       map[ast.Node]typesystem.Type
	resolutionMap map[ast.Node]symbols.Symbol

	constIndex map[constKey]int
	typeIndex  map[string]int

	// Current function being compiled
	function   *Function
	locals     []Local
	scopeDepth int // 1 is the function body
	slotCount  int // Slots in use by live locals
	loopStack  []LoopContext
}

// constKey identifies a constant for deduplication.
type constKey struct {
	typ  ValueType
	data uint64
	str  string
}

// compileError aborts compilation from deep inside the walk.
type compileError struct {
	tok token.Token
	msg string
}

// NewCompiler creates a compiler over the analyzer's results.
func NewCompiler(st *symbols.SymbolTable, typeMap map[ast.Node]typesystem.Type, resolutionMap map[ast.Node]symbols.Symbol) *Compiler {
	return &Compiler{
		symbolTable:   st,
		typeMap:       typeMap,
		resolutionMap: resolutionMap,
		constIndex:    make(map[constKey]int),
		typeIndex:     make(map[string]int),
	}
}

// Compile produces the Program for an analyzed AST. natives supplies the
// host implementations of declared prototypes, by name.
func (c *Compiler) Compile(root *ast.Program, name string, natives map[string]NativeFunc) (prog *Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			ce, ok := r.(compileError)
			if !ok {
				panic(r)
			}
			prog = nil
			err = diagnostics.NewError(diagnostics.ErrC001, ce.tok, "internal compiler error: %s", ce.msg)
		}
	}()

	c.program = &Program{ID: uuid.New(), Name: name}
	c.collectTypes(root)

	for _, sig := range c.symbolTable.Natives() {
		c.program.Natives = append(c.program.Natives, Native{Signature: sig, Fn: natives[sig.Name]})
	}
	for _, g := range c.symbolTable.Globals() {
		c.program.Globals = append(c.program.Globals, Global{Name: g.Name, Type: g.Type})
	}

	c.program.Functions = make([]*Function, len(c.symbolTable.Functions()))
	var globals []*ast.VarDeclaration
	for _, decl := range root.Declarations {
		switch d := decl.(type) {
		case *ast.FunctionDeclaration:
			sym, ok := c.resolutionMap[d]
			if !ok {
				c.fail(d.Name.Token, "function %s was not resolved", d.Name.Value)
			}
			c.program.Functions[sym.Index] = c.compileFunction(d, c.symbolTable.Functions()[sym.Index])
		case *ast.VarDeclaration:
			globals = append(globals, d)
		}
	}
	for i, fn := range c.program.Functions {
		if fn == nil {
			c.fail(token.Token{}, "function %d has no body", i)
		}
	}
	c.program.Init = c.compileInit(globals)

	c.program.buildIndex()
	return c.program, nil
}

// collectTypes copies struct and enum definitions in declaration order.
func (c *Compiler) collectTypes(root *ast.Program) {
	for _, decl := range root.Declarations {
		switch d := decl.(type) {
		case *ast.StructDeclaration:
			if def, ok := c.symbolTable.GetStruct(d.Name.Value); ok {
				c.program.Structs = append(c.program.Structs, def)
			}
		case *ast.EnumDeclaration:
			if def, ok := c.symbolTable.GetEnum(d.Name.Value); ok {
				c.program.Enums = append(c.program.Enums, def)
			}
		}
	}
}

func (c *Compiler) compileFunction(fd *ast.FunctionDeclaration, sig *typesystem.Signature) *Function {
	c.beginFunction(&Function{
		Name:       sig.Name,
		Params:     sig.Params,
		ReturnType: sig.ReturnType,
		Chunk:      NewChunk(),
	})
	for _, p := range fd.Parameters {
		c.addLocal(p.Name.Value, p.Name.Token)
	}
	// The body shares the parameters' scope.
	for _, stmt := range fd.Body.Statements {
		c.compileStatement(stmt)
	}

	if returnsVoid(sig.ReturnType) {
		c.emit(OP_RETURN_VOID, fd.Body.Token)
	} else {
		c.emit(OP_TRAP, fd.Name.Token)
	}
	return c.endFunction()
}

// compileInit builds the function that assigns every global its
// initializer or zero value, in declaration order.
func (c *Compiler) compileInit(globals []*ast.VarDeclaration) *Function {
	c.beginFunction(&Function{Name: config.InitFuncName, ReturnType: typesystem.Void, Chunk: NewChunk()})
	for _, vd := range globals {
		sym, ok := c.resolutionMap[vd]
		if !ok || !sym.IsGlobal {
			c.fail(vd.Name.Token, "global %s was not resolved", vd.Name.Value)
		}
		if vd.Value != nil {
			c.compileExpression(vd.Value)
		} else {
			c.emitZero(sym.Type, vd.Name.Token)
		}
		c.emitU16Op(OP_SET_GLOBAL, sym.Index, vd.Name.Token)
	}
	c.emit(OP_RETURN_VOID, token.Token{})
	return c.endFunction()
}

func (c *Compiler) beginFunction(fn *Function) {
	c.function = fn
	c.locals = c.locals[:0]
	c.scopeDepth = 1
	c.slotCount = 0
	c.loopStack = c.loopStack[:0]
}

func (c *Compiler) endFunction() *Function {
	fn := c.function
	c.function = nil
	return fn
}

// addConstant returns the pool index of v, adding it on first use.
func (c *Compiler) addConstant(v Value, tok token.Token) int {
	key := constKey{typ: v.Type, data: v.Data, str: v.AsString()}
	if idx, ok := c.constIndex[key]; ok {
		return idx
	}
	idx := len(c.program.Constants)
	if idx > 0xffff {
		c.fail(tok, "too many constants")
	}
	c.program.Constants = append(c.program.Constants, v)
	c.constIndex[key] = idx
	return idx
}

// addType returns the index of t in the OP_ZERO table.
func (c *Compiler) addType(t typesystem.Type, tok token.Token) int {
	if t == nil {
		c.fail(tok, "missing type")
	}
	key := t.String()
	if idx, ok := c.typeIndex[key]; ok {
		return idx
	}
	idx := len(c.program.Types)
	if idx > 0xffff {
		c.fail(tok, "too many types")
	}
	c.program.Types = append(c.program.Types, t)
	c.typeIndex[key] = idx
	return idx
}

func (c *Compiler) typeOf(node ast.Node, tok token.Token) typesystem.Type {
	t, ok := c.typeMap[node]
	if !ok {
		c.fail(tok, "expression has no type")
	}
	return t
}

func (c *Compiler) symbolOf(node ast.Node, tok token.Token) symbols.Symbol {
	sym, ok := c.resolutionMap[node]
	if !ok {
		c.fail(tok, "name %s was not resolved", tok.Lexeme)
	}
	return sym
}

func (c *Compiler) fail(tok token.Token, format string, args ...interface{}) {
	panic(compileError{tok: tok, msg: fmt.Sprintf(format, args...)})
}
