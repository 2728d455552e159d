package mscript

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/funvibe/mscript/internal/vm"
)

// VM runs functions of one Program and keeps its globals between runs.
// A VM must not be used from two goroutines at once; create one VM per
// goroutine from a shared Program instead.
type VM struct {
	machine    *vm.VM
	marshaller *Marshaller
}

func newVM(machine *vm.VM, m *Marshaller) *VM {
	return &VM{machine: machine, marshaller: m}
}

// ID identifies the VM in logs.
func (v *VM) ID() uuid.UUID {
	return v.machine.ID
}

func (v *VM) Program() *Program {
	return v.machine.Program()
}

// Run calls the script function fn. Boundary problems are reported as
// *CallError before anything executes; failures during execution as
// *Fault, after which the VM is still usable.
func (v *VM) Run(ctx context.Context, fn string, args ...Value) (Value, error) {
	return v.machine.Run(ctx, fn, args...)
}

// Call is Run with Go values: arguments go through ToValue and the result
// comes back in its natural Go form (nil for void functions).
func (v *VM) Call(ctx context.Context, fn string, args ...interface{}) (interface{}, error) {
	values := make([]Value, len(args))
	for i, a := range args {
		val, err := v.marshaller.ToValue(a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		values[i] = val
	}
	result, err := v.machine.Run(ctx, fn, values...)
	if err != nil {
		return nil, err
	}
	return v.marshaller.FromValue(result, nil)
}

// Global returns a copy of a global variable's current value.
func (v *VM) Global(name string) (Value, bool) {
	return v.machine.Global(name)
}
