package mscript_test

import (
	"reflect"
	"testing"

	mscript "github.com/funvibe/mscript/pkg/embed"
)

func reflectTypeOf(v interface{}) reflect.Type {
	return reflect.TypeOf(v)
}

type point struct {
	X, Y    float64
	Tags    []string
	private int
}

func TestMarshallerRoundTrip(t *testing.T) {
	m := mscript.NewMarshaller()
	handle := &User{Name: "h"}

	tests := []struct {
		name string
		in   interface{}
		want mscript.Value
	}{
		{"int", 7, mscript.Int(7)},
		{"uint8", uint8(200), mscript.Int(200)},
		{"float32", float32(0.5), mscript.Float(0.5)},
		{"bool", true, mscript.Bool(true)},
		{"string", "hi", mscript.String("hi")},
		{"slice", []int{1, 2}, mscript.Array(mscript.Int(1), mscript.Int(2))},
		{"struct", point{X: 1, Y: 2, Tags: []string{"a"}}, mscript.Object(mscript.Float(1), mscript.Float(2), mscript.Array(mscript.String("a")))},
		{"pointer", handle, mscript.Pointer(handle)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := m.ToValue(tt.in)
			if err != nil {
				t.Fatalf("ToValue: %v", err)
			}
			if !v.Equal(tt.want) {
				t.Fatalf("ToValue = %s, want %s", v.Inspect(), tt.want.Inspect())
			}
			back, err := m.FromValue(v, reflect.TypeOf(tt.in))
			if err != nil {
				t.Fatalf("FromValue: %v", err)
			}
			if !reflect.DeepEqual(back, tt.in) {
				t.Errorf("FromValue = %#v, want %#v", back, tt.in)
			}
		})
	}
}

func TestMarshallerNaturalForm(t *testing.T) {
	m := mscript.NewMarshaller()
	v := mscript.Object(mscript.Int(1), mscript.Array(mscript.Bool(true)), mscript.Pointer(nil))
	got, err := m.FromValue(v, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []interface{}{int64(1), []interface{}{true}, nil}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FromValue = %#v, want %#v", got, want)
	}
	if got, _ := m.FromValue(mscript.Void(), nil); got != nil {
		t.Errorf("void should map to nil, got %#v", got)
	}
}

func TestMarshallerRejectsMismatches(t *testing.T) {
	m := mscript.NewMarshaller()
	tests := []struct {
		name string
		v    mscript.Value
		t    reflect.Type
	}{
		{"float to int", mscript.Float(1), reflect.TypeOf(0)},
		{"overflow", mscript.Int(300), reflect.TypeOf(uint8(0))},
		{"negative to uint", mscript.Int(-1), reflect.TypeOf(uint(0))},
		{"member count", mscript.Object(mscript.Float(1)), reflect.TypeOf(point{})},
		{"foreign pointer", mscript.Pointer(&point{}), reflect.TypeOf(&User{})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.FromValue(tt.v, tt.t); err == nil {
				t.Errorf("expected an error")
			}
		})
	}
}
