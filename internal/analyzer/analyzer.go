package analyzer

import (
	"fmt"
	"sort"

	"github.com/funvibe/mscript/internal/ast"
	"github.com/funvibe/mscript/internal/diagnostics"
	"github.com/funvibe/mscript/internal/symbols"
	"github.com/funvibe/mscript/internal/token"
	"github.com/funvibe/mscript/internal/typesystem"
)

// Analyzer performs semantic analysis on the AST: it resolves every name,
// types every expression and rejects ill-typed programs.
type Analyzer struct {
	symbolTable   *symbols.SymbolTable
	TypeMap       map[ast.Node]typesystem.Type // Type of every expression and declaration
	ResolutionMap map[ast.Node]symbols.Symbol  // Declaration each name refers to
}

// New creates a new Analyzer with a given symbol table.
func New(symbolTable *symbols.SymbolTable) *Analyzer {
	return &Analyzer{
		symbolTable:   symbolTable,
		TypeMap:       make(map[ast.Node]typesystem.Type),
		ResolutionMap: make(map[ast.Node]symbols.Symbol),
	}
}

// Analyze checks program together with the host natives it may call.
// Analysis runs in passes: naming collects top-level names, headers
// resolve types and signatures, bodies check function bodies.
func (a *Analyzer) Analyze(program *ast.Program, natives []*ast.FunctionDeclaration) []*diagnostics.DiagnosticError {
	w := &walker{
		symbolTable:   a.symbolTable,
		TypeMap:       a.TypeMap,
		ResolutionMap: a.ResolutionMap,
		currentFile:   program.File,
		signatures:    make(map[*ast.FunctionDeclaration]*typesystem.Signature),
	}

	w.collectNames(program, natives)
	w.analyzeHeaders(program, natives)
	w.analyzeBodies(program)
	return w.getErrors()
}

type walker struct {
	symbolTable   *symbols.SymbolTable
	errorSet      map[string]*diagnostics.DiagnosticError // Key: "line:col:code" for deduplication
	TypeMap       map[ast.Node]typesystem.Type
	ResolutionMap map[ast.Node]symbols.Symbol
	currentFile   string

	signatures  map[*ast.FunctionDeclaration]*typesystem.Signature
	structs     []*ast.StructDeclaration // declared and uniquely named
	enums       []*ast.EnumDeclaration
	globals     []*ast.VarDeclaration
	functions   []*ast.FunctionDeclaration
	currentFunc *typesystem.Signature
	loopDepth   int
}

// addError adds an error to the walker, deduplicating by position and code
func (w *walker) addError(err *diagnostics.DiagnosticError) {
	if err.File == "" && w.currentFile != "" {
		err.File = w.currentFile
	}
	key := fmt.Sprintf("%d:%d:%s", err.Token.Line, err.Token.Column, err.Code)
	if w.errorSet == nil {
		w.errorSet = make(map[string]*diagnostics.DiagnosticError)
	}
	if _, seen := w.errorSet[key]; !seen {
		w.errorSet[key] = err
	}
}

func (w *walker) errorf(code diagnostics.ErrorCode, tok token.Token, format string, args ...interface{}) {
	w.addError(diagnostics.NewError(code, tok, format, args...))
}

// getErrors returns all unique errors as a slice, sorted by position
func (w *walker) getErrors() []*diagnostics.DiagnosticError {
	result := make([]*diagnostics.DiagnosticError, 0, len(w.errorSet))
	for _, err := range w.errorSet {
		result = append(result, err)
	}

	// Sort by line, then column for deterministic output
	sort.Slice(result, func(i, j int) bool {
		if result[i].Token.Line != result[j].Token.Line {
			return result[i].Token.Line < result[j].Token.Line
		}
		if result[i].Token.Column != result[j].Token.Column {
			return result[i].Token.Column < result[j].Token.Column
		}
		return result[i].Code < result[j].Code
	})
	return result
}

func typeName(t typesystem.Type) string {
	if t == nil {
		return "void"
	}
	return t.String()
}

// definitionToken returns the name token of a declaration node.
func definitionToken(n ast.Node) token.Token {
	switch d := n.(type) {
	case *ast.StructDeclaration:
		return d.Name.Token
	case *ast.EnumDeclaration:
		return d.Name.Token
	case *ast.FunctionDeclaration:
		return d.Name.Token
	case *ast.VarDeclaration:
		return d.Name.Token
	case ast.TokenProvider:
		return d.GetToken()
	}
	return token.Token{}
}
