// Package mscript embeds the mscript language: compile scripts against a
// set of host capabilities, then run their functions on VMs.
package mscript

import (
	"fmt"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/funvibe/mscript/internal/analyzer"
	"github.com/funvibe/mscript/internal/ast"
	"github.com/funvibe/mscript/internal/config"
	"github.com/funvibe/mscript/internal/lexer"
	"github.com/funvibe/mscript/internal/parser"
	"github.com/funvibe/mscript/internal/pipeline"
	"github.com/funvibe/mscript/internal/vm"
)

var log = commonlog.GetLogger("mscript.system")

// VMConfig bounds the runs of VMs created by a System.
type VMConfig = config.VMConfig

// System owns the host capabilities and the source loader. Programs are
// compiled against the natives bound at the time of compilation.
// A System is safe for concurrent use.
type System struct {
	loader     SourceLoader
	config     VMConfig
	marshaller *Marshaller

	mu      sync.RWMutex
	natives []*ast.FunctionDeclaration
	impls   map[string]NativeFunc
}

// Option configures a System.
type Option func(*System)

// WithVMConfig sets the limits of every VM the system creates.
func WithVMConfig(cfg VMConfig) Option {
	return func(s *System) {
		s.config = cfg
	}
}

// NewSystem creates a system reading sources through loader. A nil loader
// is allowed when only Compile is used.
func NewSystem(loader SourceLoader, opts ...Option) *System {
	s := &System{
		loader:     loader,
		config:     config.Default().VM,
		marshaller: NewMarshaller(),
		impls:      make(map[string]NativeFunc),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bind registers a host capability. The prototype is written in script
// syntax, e.g. "fn hostLog(msg: string)"; scripts call it like any other
// function and calls are checked against it statically.
func (s *System) Bind(prototype string, fn NativeFunc) error {
	decl, err := parsePrototype(prototype)
	if err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("native %s: nil implementation", decl.Name.Value)
	}
	return s.register(decl, fn)
}

// BindGo registers a plain Go function for prototype, converting arguments
// and the result with the system's Marshaller. The function may take a
// leading context.Context and may return a trailing error.
func (s *System) BindGo(prototype string, fn interface{}) error {
	decl, err := parsePrototype(prototype)
	if err != nil {
		return err
	}
	native, err := s.marshaller.wrapGoFunc(fn, len(decl.Parameters), decl.ReturnType != nil && !isVoidAnnotation(decl.ReturnType))
	if err != nil {
		return fmt.Errorf("native %s: %w", decl.Name.Value, err)
	}
	return s.register(decl, native)
}

func (s *System) register(decl *ast.FunctionDeclaration, fn NativeFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := decl.Name.Value
	if _, ok := s.impls[name]; ok {
		return fmt.Errorf("native %s is already bound", name)
	}
	s.natives = append(s.natives, decl)
	s.impls[name] = fn
	log.Debugf("bound native %s", name)
	return nil
}

// LoadProgram reads the named source through the loader and compiles it.
func (s *System) LoadProgram(name string) (*Program, error) {
	if s.loader == nil {
		return nil, fmt.Errorf("load %s: the system has no source loader", name)
	}
	source, err := s.loader.Load(name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return s.Compile(name, source)
}

// Compile compiles source as the program called name. Compile-time errors
// are returned together as a diagnostics.ErrorList; no partial program is
// produced.
func (s *System) Compile(name, source string) (*Program, error) {
	ctx := pipeline.NewPipelineContext(source)
	ctx.FilePath = name

	s.mu.RLock()
	ctx.Natives = append([]*ast.FunctionDeclaration(nil), s.natives...)
	impls := make(map[string]NativeFunc, len(s.impls))
	for k, v := range s.impls {
		impls[k] = v
	}
	s.mu.RUnlock()

	ctx = pipeline.New(
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		&analyzer.SemanticAnalyzerProcessor{},
		&vm.CompilerProcessor{Natives: impls},
	).Run(ctx)
	if err := ctx.Err(); err != nil {
		log.Debugf("compile %s: %d error(s)", name, len(ctx.Errors))
		return nil, err
	}

	prog := ctx.Program.(*vm.Program)
	log.Infof("compiled %s", prog)
	return prog, nil
}

// NewVM creates a VM for p with the system's limits. Global initializers
// run immediately.
func (s *System) NewVM(p *Program) *VM {
	return newVM(vm.New(p, s.config), s.marshaller)
}

// Encode serializes a compiled program.
func (s *System) Encode(p *Program) ([]byte, error) {
	return vm.Encode(p)
}

// Decode restores a program produced by Encode, binding its natives by
// name to the system's current implementations.
func (s *System) Decode(data []byte) (*Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return vm.Decode(data, s.impls)
}

// Marshaller returns the converter used by BindGo and VM.Call.
func (s *System) Marshaller() *Marshaller {
	return s.marshaller
}

func parsePrototype(prototype string) (*ast.FunctionDeclaration, error) {
	ctx := pipeline.NewPipelineContext(prototype)
	ctx = (&lexer.LexerProcessor{}).Process(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	decl := parser.ParsePrototype(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if decl == nil {
		return nil, fmt.Errorf("invalid prototype %q", prototype)
	}
	return decl, nil
}

// isVoidAnnotation reports whether a return annotation spells void.
func isVoidAnnotation(t ast.Type) bool {
	named, ok := t.(*ast.NamedType)
	return ok && named.Name.Value == config.VoidTypeName
}
