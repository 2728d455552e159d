package vm

import (
	"math"
	"strings"
)

// typeMismatch reports operands the instruction cannot handle. The
// compiler never emits such code, so this means the bytecode is corrupt.
func (vm *VM) typeMismatch(op Opcode, operands ...Value) error {
	types := make([]string, len(operands))
	for i, v := range operands {
		types[i] = v.Type.String()
	}
	return vm.fault(ErrInvalidBytecode, "%s cannot operate on %s", op, strings.Join(types, ", "))
}

// binaryInt performs wrapping two's-complement arithmetic.
func (vm *VM) binaryInt(op Opcode) error {
	b := vm.pop()
	a := vm.pop()
	if a.Type != ValInt || b.Type != ValInt {
		return vm.typeMismatch(op, a, b)
	}
	x, y := a.AsInt(), b.AsInt()
	var r int64
	switch op {
	case OP_ADD_INT:
		r = x + y
	case OP_SUB_INT:
		r = x - y
	case OP_MUL_INT:
		r = x * y
	case OP_DIV_INT, OP_MOD_INT:
		if y == 0 {
			if op == OP_MOD_INT {
				return vm.fault(ErrDivisionByZero, "%d %% 0", x)
			}
			return vm.fault(ErrDivisionByZero, "%d / 0", x)
		}
		// MinInt64 / -1 wraps instead of trapping
		if y == -1 {
			if op == OP_DIV_INT {
				r = -x
			} else {
				r = 0
			}
		} else if op == OP_DIV_INT {
			r = x / y
		} else {
			r = x % y
		}
	}
	vm.push(IntVal(r))
	return nil
}

// binaryFloat follows IEEE 754: division by zero yields an infinity or NaN.
func (vm *VM) binaryFloat(op Opcode) error {
	b := vm.pop()
	a := vm.pop()
	if a.Type != ValFloat || b.Type != ValFloat {
		return vm.typeMismatch(op, a, b)
	}
	x, y := a.AsFloat(), b.AsFloat()
	var r float64
	switch op {
	case OP_ADD_FLOAT:
		r = x + y
	case OP_SUB_FLOAT:
		r = x - y
	case OP_MUL_FLOAT:
		r = x * y
	case OP_DIV_FLOAT:
		r = x / y
	}
	vm.push(FloatVal(r))
	return nil
}

var operandTypeOf = map[Opcode]ValueType{
	OP_CMP_INT:     ValInt,
	OP_CMP_FLOAT:   ValFloat,
	OP_CMP_STRING:  ValString,
	OP_CMP_BOOL:    ValBool,
	OP_CMP_POINTER: ValPointer,
}

func (vm *VM) compare(op Opcode, cmp byte) error {
	b := vm.pop()
	a := vm.pop()
	want := operandTypeOf[op]
	if a.Type != want || b.Type != want {
		return vm.typeMismatch(op, a, b)
	}
	if int(cmp) >= len(cmpNames) {
		return vm.fault(ErrInvalidBytecode, "unknown comparison %d", cmp)
	}

	var order int
	switch op {
	case OP_CMP_INT:
		order = compareOrdered(a.AsInt(), b.AsInt())
	case OP_CMP_FLOAT:
		x, y := a.AsFloat(), b.AsFloat()
		// Every comparison with NaN is false except !=
		if math.IsNaN(x) || math.IsNaN(y) {
			vm.push(BoolVal(cmp == CMP_NE))
			return nil
		}
		order = compareOrdered(x, y)
	case OP_CMP_STRING:
		order = strings.Compare(a.AsString(), b.AsString())
	case OP_CMP_BOOL, OP_CMP_POINTER:
		if cmp != CMP_EQ && cmp != CMP_NE {
			return vm.fault(ErrInvalidBytecode, "%s does not support %s", op, cmpNames[cmp])
		}
		eq := a.Equal(b)
		vm.push(BoolVal(eq == (cmp == CMP_EQ)))
		return nil
	}

	var r bool
	switch cmp {
	case CMP_EQ:
		r = order == 0
	case CMP_NE:
		r = order != 0
	case CMP_LT:
		r = order < 0
	case CMP_LE:
		r = order <= 0
	case CMP_GT:
		r = order > 0
	case CMP_GE:
		r = order >= 0
	}
	vm.push(BoolVal(r))
	return nil
}

func compareOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// floatToInt truncates toward zero. NaN and values outside the int64 range
// have no conversion.
func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || f < -9223372036854775808.0 || f >= 9223372036854775808.0 {
		return 0, false
	}
	return int64(f), true
}
