package vm

import (
	"fmt"
	"strings"

	"github.com/funvibe/mscript/internal/config"
	"github.com/funvibe/mscript/internal/typesystem"
)

// verify checks a decoded program for the properties resolution
// guarantees of compiled ones: unique names, type references that resolve,
// structs that do not contain themselves, frames large enough for their
// parameters and global initializers that complete. buildIndex must have
// run.
func (p *Program) verify() error {
	if err := p.verifyNames(); err != nil {
		return err
	}
	for _, s := range p.Structs {
		for _, f := range s.Fields {
			if err := p.verifyType(f.Type, false); err != nil {
				return fmt.Errorf("vm: member %s.%s: %w", s.Name, f.Name, err)
			}
		}
	}
	for _, s := range p.Structs {
		if path := typesystem.ContainmentPath(p.Struct, s.Name); path != nil {
			return fmt.Errorf("vm: recursive struct %s: contains itself through %s", s.Name, strings.Join(path, " -> "))
		}
	}
	for _, g := range p.Globals {
		if err := p.verifyType(g.Type, false); err != nil {
			return fmt.Errorf("vm: global %s: %w", g.Name, err)
		}
	}
	for i, t := range p.Types {
		if err := p.verifyType(t, false); err != nil {
			return fmt.Errorf("vm: type %d: %w", i, err)
		}
	}
	for _, n := range p.Natives {
		if err := p.verifySignature(n.Signature.Params, n.Signature.ReturnType); err != nil {
			return fmt.Errorf("vm: native %s: %w", n.Signature.Name, err)
		}
	}
	for _, fn := range p.Functions {
		if err := p.verifyFunction(fn); err != nil {
			return err
		}
	}
	if p.Init == nil {
		return nil
	}
	if err := p.verifyFunction(p.Init); err != nil {
		return err
	}
	return p.verifyInit()
}

func (p *Program) verifyNames() error {
	seen := make(map[string]string)
	claim := func(kind, name string) error {
		if prev, ok := seen[kind+" "+name]; ok {
			return fmt.Errorf("vm: duplicate %s %s", prev, name)
		}
		seen[kind+" "+name] = kind
		return nil
	}
	for _, s := range p.Structs {
		if err := claim("type", s.Name); err != nil {
			return err
		}
	}
	for _, e := range p.Enums {
		if err := claim("type", e.Name); err != nil {
			return err
		}
	}
	for _, fn := range p.Functions {
		if err := claim("function", fn.Name); err != nil {
			return err
		}
	}
	for _, n := range p.Natives {
		if err := claim("function", n.Signature.Name); err != nil {
			return err
		}
	}
	for _, g := range p.Globals {
		if err := claim("global", g.Name); err != nil {
			return err
		}
	}
	return nil
}

func (p *Program) verifyFunction(fn *Function) error {
	if err := p.verifySignature(fn.Params, fn.ReturnType); err != nil {
		return fmt.Errorf("vm: function %s: %w", fn.Name, err)
	}
	if fn.LocalCount < len(fn.Params) || fn.LocalCount > config.MaxLocalsPerFrame {
		return fmt.Errorf("vm: function %s: invalid local count %d", fn.Name, fn.LocalCount)
	}
	return nil
}

func (p *Program) verifySignature(params []typesystem.Param, ret typesystem.Type) error {
	for _, param := range params {
		if err := p.verifyType(param.Type, false); err != nil {
			return fmt.Errorf("parameter %s: %w", param.Name, err)
		}
	}
	if err := p.verifyType(ret, true); err != nil {
		return fmt.Errorf("return type: %w", err)
	}
	return nil
}

// verifyType checks that t is a value type whose names resolve. Void is
// accepted only where voidOK is set.
func (p *Program) verifyType(t typesystem.Type, voidOK bool) error {
	switch tt := t.(type) {
	case typesystem.TStruct:
		if _, ok := p.Struct(tt.Name); !ok {
			return fmt.Errorf("unknown struct %s", tt.Name)
		}
		return nil
	case typesystem.TEnum:
		if _, ok := p.Enum(tt.Name); !ok {
			return fmt.Errorf("unknown enum %s", tt.Name)
		}
		return nil
	case typesystem.TArray:
		return p.verifyType(tt.Elem, false)
	case typesystem.TFunc:
		return fmt.Errorf("%s is not a value type", tt)
	}
	if typesystem.TagOf(t) == typesystem.TagVoid && !voidOK {
		return fmt.Errorf("void is not a value type")
	}
	return nil
}

// verifyInit runs the global initializers once on a scratch VM. Compiled
// initializers are straight-line code, so the run is bounded by the length
// of the chunk; anything longer is rejected.
func (p *Program) verifyInit() error {
	scratch := newMachine(p, config.Default().VM)
	budget := int64(len(p.Init.Chunk.Code)) + 1
	if err := scratch.initialize(budget); err != nil {
		return fmt.Errorf("vm: global initializers of %s failed: %w", p.Name, err)
	}
	return nil
}
