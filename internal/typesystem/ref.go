package typesystem

import "fmt"

// TypeRef is a serializable mirror of Type.
type TypeRef struct {
	Tag  Tag      `cbor:"1,keyasint" json:"tag"`
	Name string   `cbor:"2,keyasint,omitempty" json:"name,omitempty"`
	Elem *TypeRef `cbor:"3,keyasint,omitempty" json:"elem,omitempty"`
}

// Ref converts t to its serializable form.
func Ref(t Type) *TypeRef {
	switch tt := t.(type) {
	case nil:
		return &TypeRef{Tag: TagVoid}
	case TCon:
		return &TypeRef{Tag: tt.typeTag()}
	case TStruct:
		return &TypeRef{Tag: TagStruct, Name: tt.Name}
	case TEnum:
		return &TypeRef{Tag: TagEnum, Name: tt.Name}
	case TArray:
		return &TypeRef{Tag: TagArray, Elem: Ref(tt.Elem)}
	}
	return &TypeRef{Tag: TagVoid}
}

// Type converts the reference back to a Type.
func (r *TypeRef) Type() (Type, error) {
	if r == nil {
		return nil, fmt.Errorf("typesystem: nil type reference")
	}
	switch r.Tag {
	case TagVoid:
		return Void, nil
	case TagPointer:
		return Pointer, nil
	case TagInt:
		return Int, nil
	case TagFloat:
		return Float, nil
	case TagBool:
		return Bool, nil
	case TagString:
		return String, nil
	case TagStruct:
		return TStruct{Name: r.Name}, nil
	case TagEnum:
		return TEnum{Name: r.Name}, nil
	case TagArray:
		elem, err := r.Elem.Type()
		if err != nil {
			return nil, err
		}
		return TArray{Elem: elem}, nil
	}
	return nil, fmt.Errorf("typesystem: unknown type tag %d", r.Tag)
}
