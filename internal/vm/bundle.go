package vm

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/funvibe/mscript/internal/typesystem"
)

// Bytecode file layout:
// - Magic number (4 bytes): "MSCB"
// - Version (1 byte)
// - Canonical CBOR encoding of programWire
var bundleMagic = []byte("MSCB")

const bundleVersion byte = 0x01

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type programWire struct {
	ID        []byte                `cbor:"1,keyasint"`
	Name      string                `cbor:"2,keyasint"`
	Structs   []structWire          `cbor:"3,keyasint,omitempty"`
	Enums     []enumWire            `cbor:"4,keyasint,omitempty"`
	Functions []functionWire        `cbor:"5,keyasint,omitempty"`
	Natives   []functionWire        `cbor:"6,keyasint,omitempty"`
	Globals   []paramWire           `cbor:"7,keyasint,omitempty"`
	Constants []constantWire        `cbor:"8,keyasint,omitempty"`
	Types     []*typesystem.TypeRef `cbor:"9,keyasint,omitempty"`
	Init      *functionWire         `cbor:"10,keyasint,omitempty"`
}

type structWire struct {
	Name   string      `cbor:"1,keyasint"`
	Fields []paramWire `cbor:"2,keyasint"`
}

type enumWire struct {
	Name    string       `cbor:"1,keyasint"`
	Members []memberWire `cbor:"2,keyasint"`
}

type memberWire struct {
	Name  string `cbor:"1,keyasint"`
	Value int64  `cbor:"2,keyasint"`
}

type paramWire struct {
	Name string              `cbor:"1,keyasint"`
	Type *typesystem.TypeRef `cbor:"2,keyasint"`
}

// functionWire describes script functions and native prototypes alike;
// natives have no chunk.
type functionWire struct {
	Name       string              `cbor:"1,keyasint"`
	Params     []paramWire         `cbor:"2,keyasint,omitempty"`
	ReturnType *typesystem.TypeRef `cbor:"3,keyasint"`
	LocalCount int                 `cbor:"4,keyasint,omitempty"`
	Chunk      *Chunk              `cbor:"5,keyasint,omitempty"`
}

type constantWire struct {
	Type ValueType `cbor:"1,keyasint"`
	Data uint64    `cbor:"2,keyasint,omitempty"`
	Str  string    `cbor:"3,keyasint,omitempty"`
}

// Encode serializes p. Native implementations are not part of the
// encoding; only their prototypes are.
func Encode(p *Program) ([]byte, error) {
	w := programWire{
		ID:   p.ID[:],
		Name: p.Name,
	}
	for _, s := range p.Structs {
		w.Structs = append(w.Structs, structWire{Name: s.Name, Fields: fieldsWire(s.Fields)})
	}
	for _, e := range p.Enums {
		ew := enumWire{Name: e.Name}
		for _, m := range e.Members {
			ew.Members = append(ew.Members, memberWire{Name: m.Name, Value: m.Value})
		}
		w.Enums = append(w.Enums, ew)
	}
	for _, fn := range p.Functions {
		w.Functions = append(w.Functions, functionToWire(fn))
	}
	for _, n := range p.Natives {
		w.Natives = append(w.Natives, functionWire{
			Name:       n.Signature.Name,
			Params:     paramsWire(n.Signature.Params),
			ReturnType: typesystem.Ref(n.Signature.ReturnType),
		})
	}
	for _, g := range p.Globals {
		w.Globals = append(w.Globals, paramWire{Name: g.Name, Type: typesystem.Ref(g.Type)})
	}
	for _, c := range p.Constants {
		cw := constantWire{Type: c.Type, Data: c.Data}
		switch c.Type {
		case ValInt, ValFloat:
		case ValString:
			cw.Str = c.AsString()
		default:
			return nil, fmt.Errorf("vm: cannot encode %s constant", c.Type)
		}
		w.Constants = append(w.Constants, cw)
	}
	for _, t := range p.Types {
		w.Types = append(w.Types, typesystem.Ref(t))
	}
	if p.Init != nil {
		fw := functionToWire(p.Init)
		w.Init = &fw
	}

	payload, err := cborEncMode.Marshal(&w)
	if err != nil {
		return nil, fmt.Errorf("vm: encode %s: %w", p.Name, err)
	}
	var buf bytes.Buffer
	buf.Write(bundleMagic)
	buf.WriteByte(bundleVersion)
	buf.Write(payload)
	return buf.Bytes(), nil
}

// Decode rebuilds a program produced by Encode. Every native prototype in
// the encoding must have an implementation in natives. The bytes are
// untrusted: the program is verified before it is returned.
func Decode(data []byte, natives map[string]NativeFunc) (*Program, error) {
	if len(data) < len(bundleMagic)+1 || !bytes.Equal(data[:len(bundleMagic)], bundleMagic) {
		return nil, fmt.Errorf("vm: invalid magic number, expected %s", bundleMagic)
	}
	if version := data[len(bundleMagic)]; version != bundleVersion {
		return nil, fmt.Errorf("vm: unsupported bytecode version %d (supported: %d)", version, bundleVersion)
	}

	var w programWire
	if err := cbor.Unmarshal(data[len(bundleMagic)+1:], &w); err != nil {
		return nil, fmt.Errorf("vm: decode: %w", err)
	}

	id, err := uuid.FromBytes(w.ID)
	if err != nil {
		return nil, fmt.Errorf("vm: decode program id: %w", err)
	}
	p := &Program{ID: id, Name: w.Name}

	for _, sw := range w.Structs {
		fields, err := paramsFromWire(sw.Fields)
		if err != nil {
			return nil, fmt.Errorf("vm: struct %s: %w", sw.Name, err)
		}
		def := &typesystem.StructDef{Name: sw.Name}
		for _, f := range fields {
			def.Fields = append(def.Fields, typesystem.Field{Name: f.Name, Type: f.Type})
		}
		p.Structs = append(p.Structs, def)
	}
	for _, ew := range w.Enums {
		def := &typesystem.EnumDef{Name: ew.Name}
		for _, m := range ew.Members {
			def.Members = append(def.Members, typesystem.EnumMember{Name: m.Name, Value: m.Value})
		}
		p.Enums = append(p.Enums, def)
	}
	for i := range w.Functions {
		fn, err := functionFromWire(&w.Functions[i])
		if err != nil {
			return nil, err
		}
		p.Functions = append(p.Functions, fn)
	}
	for _, nw := range w.Natives {
		params, err := paramsFromWire(nw.Params)
		if err != nil {
			return nil, fmt.Errorf("vm: native %s: %w", nw.Name, err)
		}
		ret, err := nw.ReturnType.Type()
		if err != nil {
			return nil, fmt.Errorf("vm: native %s: %w", nw.Name, err)
		}
		fn, ok := natives[nw.Name]
		if !ok {
			return nil, fmt.Errorf("vm: native %s is not bound", nw.Name)
		}
		p.Natives = append(p.Natives, Native{
			Signature: &typesystem.Signature{Name: nw.Name, Params: params, ReturnType: ret},
			Fn:        fn,
		})
	}
	globals, err := paramsFromWire(w.Globals)
	if err != nil {
		return nil, fmt.Errorf("vm: globals: %w", err)
	}
	for _, g := range globals {
		p.Globals = append(p.Globals, Global{Name: g.Name, Type: g.Type})
	}
	for _, cw := range w.Constants {
		switch cw.Type {
		case ValInt, ValFloat:
			p.Constants = append(p.Constants, Value{Type: cw.Type, Data: cw.Data})
		case ValString:
			p.Constants = append(p.Constants, StringVal(cw.Str))
		default:
			return nil, fmt.Errorf("vm: invalid %s constant", cw.Type)
		}
	}
	for _, ref := range w.Types {
		t, err := ref.Type()
		if err != nil {
			return nil, err
		}
		p.Types = append(p.Types, t)
	}
	if w.Init != nil {
		if p.Init, err = functionFromWire(w.Init); err != nil {
			return nil, err
		}
	}

	p.buildIndex()
	if err := p.verify(); err != nil {
		return nil, err
	}
	return p, nil
}

func functionToWire(fn *Function) functionWire {
	return functionWire{
		Name:       fn.Name,
		Params:     paramsWire(fn.Params),
		ReturnType: typesystem.Ref(fn.ReturnType),
		LocalCount: fn.LocalCount,
		Chunk:      fn.Chunk,
	}
}

func functionFromWire(fw *functionWire) (*Function, error) {
	params, err := paramsFromWire(fw.Params)
	if err != nil {
		return nil, fmt.Errorf("vm: function %s: %w", fw.Name, err)
	}
	ret, err := fw.ReturnType.Type()
	if err != nil {
		return nil, fmt.Errorf("vm: function %s: %w", fw.Name, err)
	}
	chunk := fw.Chunk
	if chunk == nil {
		return nil, fmt.Errorf("vm: function %s has no code", fw.Name)
	}
	if len(chunk.Lines) != len(chunk.Code) || len(chunk.Columns) != len(chunk.Code) {
		return nil, fmt.Errorf("vm: function %s: position table does not match code", fw.Name)
	}
	return &Function{
		Name:       fw.Name,
		Params:     params,
		ReturnType: ret,
		LocalCount: fw.LocalCount,
		Chunk:      chunk,
	}, nil
}

func paramsWire(params []typesystem.Param) []paramWire {
	out := make([]paramWire, len(params))
	for i, p := range params {
		out[i] = paramWire{Name: p.Name, Type: typesystem.Ref(p.Type)}
	}
	return out
}

func fieldsWire(fields []typesystem.Field) []paramWire {
	out := make([]paramWire, len(fields))
	for i, f := range fields {
		out[i] = paramWire{Name: f.Name, Type: typesystem.Ref(f.Type)}
	}
	return out
}

func paramsFromWire(ws []paramWire) ([]typesystem.Param, error) {
	out := make([]typesystem.Param, len(ws))
	for i, w := range ws {
		t, err := w.Type.Type()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", w.Name, err)
		}
		out[i] = typesystem.Param{Name: w.Name, Type: t}
	}
	return out, nil
}
