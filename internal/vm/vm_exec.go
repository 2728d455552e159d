package vm

// executeOneOp executes a single opcode other than the returns, which the
// run loop handles itself.
func (vm *VM) executeOneOp(op Opcode) error {
	switch op {
	case OP_CONST:
		idx := vm.readU16()
		if idx >= len(vm.program.Constants) {
			return vm.fault(ErrInvalidBytecode, "constant index %d out of range", idx)
		}
		vm.push(vm.program.Constants[idx])

	case OP_TRUE:
		vm.push(BoolVal(true))

	case OP_FALSE:
		vm.push(BoolVal(false))

	case OP_ZERO:
		idx := vm.readU16()
		if idx >= len(vm.program.Types) {
			return vm.fault(ErrInvalidBytecode, "type index %d out of range", idx)
		}
		vm.push(vm.program.ZeroValue(vm.program.Types[idx]))

	case OP_POP:
		vm.pop()

	case OP_DUP:
		vm.push(vm.peek(0))

	case OP_COPY:
		vm.push(vm.pop().Clone())

	case OP_GET_LOCAL:
		slot, err := vm.localSlot()
		if err != nil {
			return err
		}
		vm.push(vm.stack[slot])

	case OP_SET_LOCAL:
		slot, err := vm.localSlot()
		if err != nil {
			return err
		}
		vm.stack[slot] = vm.pop()

	case OP_GET_GLOBAL:
		idx, err := vm.globalSlot()
		if err != nil {
			return err
		}
		vm.push(vm.globals[idx])

	case OP_SET_GLOBAL:
		idx, err := vm.globalSlot()
		if err != nil {
			return err
		}
		vm.globals[idx] = vm.pop()

	case OP_STORE_LOCAL_PATH:
		slot, err := vm.localSlot()
		if err != nil {
			return err
		}
		return vm.storePath(&vm.stack[slot])

	case OP_STORE_GLOBAL_PATH:
		idx, err := vm.globalSlot()
		if err != nil {
			return err
		}
		return vm.storePath(&vm.globals[idx])

	case OP_GET_FIELD:
		idx := vm.readU16()
		obj := vm.pop()
		if obj.Type != ValObject {
			return vm.typeMismatch(op, obj)
		}
		fields := obj.Elems()
		if idx >= len(fields) {
			return vm.fault(ErrInvalidBytecode, "member index %d out of range", idx)
		}
		vm.push(fields[idx])

	case OP_INIT_FIELD:
		idx := vm.readU16()
		v := vm.pop()
		obj := vm.peek(0)
		if obj.Type != ValObject {
			return vm.typeMismatch(op, obj)
		}
		fields := obj.Elems()
		if idx >= len(fields) {
			return vm.fault(ErrInvalidBytecode, "member index %d out of range", idx)
		}
		fields[idx] = v

	case OP_GET_INDEX:
		index := vm.pop()
		arr := vm.pop()
		if arr.Type != ValArray || index.Type != ValInt {
			return vm.typeMismatch(op, arr, index)
		}
		elems := arr.Elems()
		i := index.AsInt()
		if i < 0 || i >= int64(len(elems)) {
			return vm.fault(ErrIndexOutOfRange, "index %d out of range [0, %d)", i, len(elems))
		}
		vm.push(elems[i])

	case OP_MAKE_ARRAY:
		n := vm.readU16()
		if vm.sp-n < vm.frame.base {
			return vm.fault(ErrInvalidBytecode, "not enough elements on the stack")
		}
		elems := make([]Value, n)
		copy(elems, vm.stack[vm.sp-n:vm.sp])
		clear(vm.stack[vm.sp-n : vm.sp])
		vm.sp -= n
		vm.push(ArrayVal(elems...))

	case OP_LEN_ARRAY:
		arr := vm.pop()
		if arr.Type != ValArray {
			return vm.typeMismatch(op, arr)
		}
		vm.push(IntVal(int64(len(arr.Elems()))))

	case OP_LEN_STRING:
		s := vm.pop()
		if s.Type != ValString {
			return vm.typeMismatch(op, s)
		}
		vm.push(IntVal(int64(len(s.AsString()))))

	case OP_APPEND:
		v := vm.pop()
		arr := vm.pop()
		if arr.Type != ValArray {
			return vm.typeMismatch(op, arr)
		}
		old := arr.Elems()
		elems := make([]Value, len(old)+1)
		copy(elems, old)
		elems[len(old)] = v
		vm.push(ArrayVal(elems...))

	case OP_ADD_INT, OP_SUB_INT, OP_MUL_INT, OP_DIV_INT, OP_MOD_INT:
		return vm.binaryInt(op)

	case OP_ADD_FLOAT, OP_SUB_FLOAT, OP_MUL_FLOAT, OP_DIV_FLOAT:
		return vm.binaryFloat(op)

	case OP_NEG_INT:
		v := vm.pop()
		if v.Type != ValInt {
			return vm.typeMismatch(op, v)
		}
		vm.push(IntVal(-v.AsInt()))

	case OP_NEG_FLOAT:
		v := vm.pop()
		if v.Type != ValFloat {
			return vm.typeMismatch(op, v)
		}
		vm.push(FloatVal(-v.AsFloat()))

	case OP_CONCAT:
		b := vm.pop()
		a := vm.pop()
		if a.Type != ValString || b.Type != ValString {
			return vm.typeMismatch(op, a, b)
		}
		vm.push(StringVal(a.AsString() + b.AsString()))

	case OP_CMP_INT, OP_CMP_FLOAT, OP_CMP_STRING, OP_CMP_BOOL, OP_CMP_POINTER:
		return vm.compare(op, vm.readByte())

	case OP_NOT:
		v := vm.pop()
		if v.Type != ValBool {
			return vm.typeMismatch(op, v)
		}
		vm.push(BoolVal(!v.AsBool()))

	case OP_INT_TO_FLOAT:
		v := vm.pop()
		if v.Type != ValInt {
			return vm.typeMismatch(op, v)
		}
		vm.push(FloatVal(float64(v.AsInt())))

	case OP_FLOAT_TO_INT:
		v := vm.pop()
		if v.Type != ValFloat {
			return vm.typeMismatch(op, v)
		}
		i, ok := floatToInt(v.AsFloat())
		if !ok {
			return vm.fault(ErrConversion, "cannot convert %v to int", v.AsFloat())
		}
		vm.push(IntVal(i))

	case OP_BOOL_TO_INT:
		v := vm.pop()
		if v.Type != ValBool {
			return vm.typeMismatch(op, v)
		}
		if v.AsBool() {
			vm.push(IntVal(1))
		} else {
			vm.push(IntVal(0))
		}

	case OP_JUMP:
		offset := vm.readU16()
		return vm.jump(offset)

	case OP_JUMP_IF_FALSE, OP_JUMP_IF_TRUE:
		offset := vm.readU16()
		cond := vm.pop()
		if cond.Type != ValBool {
			return vm.typeMismatch(op, cond)
		}
		if cond.AsBool() == (op == OP_JUMP_IF_TRUE) {
			return vm.jump(offset)
		}

	case OP_LOOP:
		offset := vm.readU16()
		return vm.jump(-offset)

	case OP_CALL:
		return vm.callScript(vm.readU16())

	case OP_CALL_NATIVE:
		return vm.callNative(vm.readU16())

	case OP_TRAP:
		return vm.fault(ErrMissingReturn, "%s ended without returning a value", vm.frame.function.Name)

	default:
		return vm.fault(ErrInvalidBytecode, "unknown opcode %d", op)
	}
	return nil
}

func (vm *VM) jump(offset int) error {
	target := vm.frame.ip + offset
	if target < 0 || target > len(vm.frame.chunk.Code) {
		return vm.fault(ErrInvalidBytecode, "jump target %d out of range", target)
	}
	vm.frame.ip = target
	return nil
}

// localSlot reads a slot operand and returns its absolute stack index.
func (vm *VM) localSlot() (int, error) {
	slot := vm.readU16()
	if slot >= vm.frame.function.LocalCount {
		return 0, vm.fault(ErrInvalidBytecode, "local slot %d out of range", slot)
	}
	return vm.frame.base + slot, nil
}

func (vm *VM) globalSlot() (int, error) {
	idx := vm.readU16()
	if idx >= len(vm.globals) {
		return 0, vm.fault(ErrInvalidBytecode, "global index %d out of range", idx)
	}
	return idx, nil
}

// storePath writes the value on top of the stack into a nested element of
// root. The dynamic indices of the path lie below the value, root to leaf.
// Every index is validated before anything is written.
func (vm *VM) storePath(root *Value) error {
	n := int(vm.readByte())
	steps := make([]byte, n)
	dynamic := 0
	for i := range steps {
		steps[i] = vm.readByte()
		if steps[i] == pathIndexStep {
			dynamic++
		}
	}

	value := vm.pop()
	if vm.sp-dynamic < vm.frame.base {
		return vm.fault(ErrInvalidBytecode, "not enough path indices on the stack")
	}
	indices := vm.stack[vm.sp-dynamic : vm.sp]

	target := root
	next := 0
	for _, step := range steps {
		elems := target.Elems()
		var i int64
		if step == pathIndexStep {
			if target.Type != ValArray || indices[next].Type != ValInt {
				return vm.typeMismatch(OP_STORE_LOCAL_PATH, *target, indices[next])
			}
			i = indices[next].AsInt()
			next++
			if i < 0 || i >= int64(len(elems)) {
				return vm.fault(ErrIndexOutOfRange, "index %d out of range [0, %d)", i, len(elems))
			}
		} else {
			if target.Type != ValObject {
				return vm.typeMismatch(OP_STORE_LOCAL_PATH, *target)
			}
			i = int64(step)
			if i >= int64(len(elems)) {
				return vm.fault(ErrInvalidBytecode, "member index %d out of range", i)
			}
		}
		target = &elems[i]
	}
	*target = value

	clear(indices)
	vm.sp -= dynamic
	return nil
}
