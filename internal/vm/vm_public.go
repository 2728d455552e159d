package vm

import (
	"context"
	"errors"
	"fmt"
)

// Run executes the function called name with args and returns its result,
// or VoidVal() for a void function. The arguments are validated against
// the declared parameters before any instruction executes; the VM keeps
// copies, so the caller's values are never modified.
//
// On a fault the stacks are reset and the VM stays usable. Global writes
// made before the fault remain visible unless RollbackOnFault is set.
func (vm *VM) Run(ctx context.Context, name string, args ...Value) (Value, error) {
	fn, ok := vm.program.Function(name)
	if !ok {
		return VoidVal(), &CallError{Kind: NameError, Function: name,
			Message: fmt.Sprintf("%s has no function named %q", vm.program.Name, name)}
	}
	if len(args) != fn.Arity() {
		return VoidVal(), &CallError{Kind: ArityError, Function: name,
			Message: fmt.Sprintf("%s expects %d argument(s), got %d", name, fn.Arity(), len(args))}
	}
	owned := make([]Value, len(args))
	for i, arg := range args {
		param := fn.Params[i]
		if err := vm.program.Conforms(arg, param.Type); err != nil {
			return VoidVal(), &CallError{Kind: TypeError, Function: name,
				Message: fmt.Sprintf("argument %d (%s) of %s: %v", i+1, param.Name, name, err)}
		}
		owned[i] = arg.Clone()
	}

	var snapshot []Value
	if vm.config.RollbackOnFault {
		snapshot = cloneValues(vm.globals)
	}

	result, err := vm.execute(ctx, fn, owned, vm.config.MaxStackSize, vm.config.MaxInstructions)
	if err != nil {
		if snapshot != nil {
			vm.globals = snapshot
		}
		var f *Fault
		if errors.As(err, &f) {
			log.Debugf("VM %s: %s faulted at %s %d:%d: %s", vm.ID, name, f.Function, f.Line, f.Column, f.Message)
		}
		return VoidVal(), err
	}
	return result, nil
}

// Global returns a copy of the current value of a global variable.
func (vm *VM) Global(name string) (Value, bool) {
	idx, ok := vm.program.GlobalIndex(name)
	if !ok {
		return VoidVal(), false
	}
	return vm.globals[idx].Clone(), true
}

func cloneValues(values []Value) []Value {
	out := make([]Value, len(values))
	for i, v := range values {
		out[i] = v.Clone()
	}
	return out
}
