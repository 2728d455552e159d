package typesystem

// Field is one struct member.
type Field struct {
	Name string
	Type Type
}

// StructDef is the layout of a struct. Object values hold exactly
// len(Fields) elements in this order.
type StructDef struct {
	Name   string
	Fields []Field
}

// FieldIndex returns the position of the named member.
func (s *StructDef) FieldIndex(name string) (int, bool) {
	for i, f := range s.Fields {
		if f.Name == name {
			return i, true
		}
	}
	return -1, false
}

type EnumMember struct {
	Name  string
	Value int64
}

// EnumDef lists enum members with their backing integers.
type EnumDef struct {
	Name    string
	Members []EnumMember
}

func (e *EnumDef) Lookup(name string) (EnumMember, bool) {
	for _, m := range e.Members {
		if m.Name == name {
			return m, true
		}
	}
	return EnumMember{}, false
}

// Has reports whether v is the backing value of some member.
func (e *EnumDef) Has(v int64) bool {
	for _, m := range e.Members {
		if m.Value == v {
			return true
		}
	}
	return false
}

// Param is a named function parameter.
type Param struct {
	Name string
	Type Type
}

// Signature is a function's declared interface.
type Signature struct {
	Name       string
	Params     []Param
	ReturnType Type
}

// Func returns the signature as a TFunc.
func (s *Signature) Func() TFunc {
	params := make([]Type, len(s.Params))
	for i, p := range s.Params {
		params[i] = p.Type
	}
	ret := s.ReturnType
	if ret == nil {
		ret = Void
	}
	return TFunc{Params: params, ReturnType: ret}
}

// ContainmentPath returns the member path through which struct name
// contains itself by value, or nil when it does not. Arrays break
// containment. lookup resolves struct names; unknown names end a path.
func ContainmentPath(lookup func(string) (*StructDef, bool), name string) []string {
	return containmentPath(lookup, name, name, map[string]bool{})
}

func containmentPath(lookup func(string) (*StructDef, bool), current, target string, visited map[string]bool) []string {
	if visited[current] {
		return nil
	}
	visited[current] = true
	def, ok := lookup(current)
	if !ok {
		return nil
	}
	for _, f := range def.Fields {
		st, ok := f.Type.(TStruct)
		if !ok {
			continue
		}
		step := current + "." + f.Name
		if st.Name == target {
			return []string{step}
		}
		if rest := containmentPath(lookup, st.Name, target, visited); rest != nil {
			return append([]string{step}, rest...)
		}
	}
	return nil
}
