package vm

import (
	"fmt"
)

// callFunction pushes a frame for fn whose argc arguments are already on
// the stack. The remaining local slots start out void and are always
// written before they are read.
func (vm *VM) callFunction(fn *Function, argc int) {
	if len(vm.frames) >= vm.config.MaxCallDepth {
		panic(vm.fault(ErrStackOverflow, "call depth exceeded %d calling %s", vm.config.MaxCallDepth, fn.Name))
	}
	base := vm.sp - argc
	for i := argc; i < fn.LocalCount; i++ {
		vm.push(VoidVal())
	}
	vm.frames = append(vm.frames, CallFrame{
		function: fn,
		chunk:    fn.Chunk,
		ip:       0,
		base:     base,
	})
	vm.frame = &vm.frames[len(vm.frames)-1]
}

// popFrame discards the innermost frame together with its locals and any
// operands left above them.
func (vm *VM) popFrame() {
	clear(vm.stack[vm.frame.base:vm.sp])
	vm.sp = vm.frame.base
	vm.frames = vm.frames[:len(vm.frames)-1]
	if len(vm.frames) > 0 {
		vm.frame = &vm.frames[len(vm.frames)-1]
	} else {
		vm.frame = nil
	}
}

func (vm *VM) callScript(idx int) error {
	if idx >= len(vm.program.Functions) {
		return vm.fault(ErrInvalidBytecode, "function index %d out of range", idx)
	}
	fn := vm.program.Functions[idx]
	if vm.sp-fn.Arity() < vm.frame.base {
		return vm.fault(ErrInvalidBytecode, "not enough arguments on the stack for %s", fn.Name)
	}
	vm.callFunction(fn, fn.Arity())
	return nil
}

// callNative hands the arguments to the host and validates what comes back.
func (vm *VM) callNative(idx int) error {
	if idx >= len(vm.program.Natives) {
		return vm.fault(ErrInvalidBytecode, "native index %d out of range", idx)
	}
	native := vm.program.Natives[idx]
	sig := native.Signature
	argc := len(sig.Params)
	if vm.sp-argc < vm.frame.base {
		return vm.fault(ErrInvalidBytecode, "not enough arguments on the stack for %s", sig.Name)
	}

	args := make([]Value, argc)
	copy(args, vm.stack[vm.sp-argc:vm.sp])
	clear(vm.stack[vm.sp-argc : vm.sp])
	vm.sp -= argc

	if native.Fn == nil {
		return vm.fault(ErrNativeFailed, "native %s is not bound", sig.Name)
	}
	result, err := vm.invokeNative(native.Fn, args)
	if err != nil {
		return vm.fault(fmt.Errorf("%w: %w", ErrNativeFailed, err), "native %s failed: %v", sig.Name, err)
	}
	if returnsVoid(sig.ReturnType) {
		return nil
	}
	if err := vm.program.Conforms(result, sig.ReturnType); err != nil {
		return vm.fault(ErrNativeFailed, "native %s returned a bad value: %v", sig.Name, err)
	}
	vm.push(result.Clone())
	return nil
}

// invokeNative turns a panicking host function into an ordinary error.
func (vm *VM) invokeNative(fn NativeFunc, args []Value) (result Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			if f, ok := r.(*Fault); ok {
				panic(f)
			}
			result, err = VoidVal(), fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(vm.ctx, args)
}
