package vm

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/funvibe/mscript/internal/config"
)

var log = commonlog.GetLogger("mscript.vm")

// Initial sizes for stack and frames
const InitialStackSize = 256
const InitialFrameCount = 64

// checkInterval is how many instructions run between context checks.
const checkInterval = 1000

// CallFrame represents a single ongoing function call
type CallFrame struct {
	function *Function
	chunk    *Chunk // shortcut to function.Chunk
	ip       int    // Instruction pointer within this frame's chunk
	base     int    // Base pointer: where this frame's locals start in the stack
}

// VM executes functions of one Program. It owns its globals, operand stack
// and call stack. A VM must not be used by two goroutines at once.
type VM struct {
	ID      uuid.UUID
	program *Program
	config  config.VMConfig

	// globals persist across runs; everything else is reset per run.
	globals []Value

	stack []Value
	sp    int // Stack pointer (points to next free slot)

	frames []CallFrame // Call stack
	frame  *CallFrame  // Innermost frame

	stackLimit int
	budget     int64
	executed   int64
	ctx        context.Context
}

// New creates a VM for program and runs the global initializers. The
// initializers are constant expressions, and Decode rejects programs whose
// initializers fault, so creation cannot fail for a compiled or decoded
// program.
func New(program *Program, cfg config.VMConfig) *VM {
	vm := newMachine(program, cfg)
	if err := vm.initialize(0); err != nil {
		panic(fmt.Sprintf("vm: global initializers of %s failed: %v", program.Name, err))
	}
	log.Debugf("created VM %s for %s", vm.ID, program)
	return vm
}

// newMachine allocates a VM with zero-valued globals.
func newMachine(program *Program, cfg config.VMConfig) *VM {
	if cfg.MaxCallDepth <= 0 {
		cfg.MaxCallDepth = config.DefaultMaxCallDepth
	}
	if cfg.MaxStackSize <= 0 {
		cfg.MaxStackSize = config.DefaultMaxStackSize
	}
	vm := &VM{
		ID:      uuid.New(),
		program: program,
		config:  cfg,
		globals: make([]Value, len(program.Globals)),
		stack:   make([]Value, InitialStackSize),
		frames:  make([]CallFrame, 0, InitialFrameCount),
	}
	for i, g := range program.Globals {
		vm.globals[i] = program.ZeroValue(g.Type)
	}
	return vm
}

// initialize runs the global initializers within budget instructions
// (zero is unlimited).
func (vm *VM) initialize(budget int64) error {
	if vm.program.Init == nil {
		return nil
	}
	_, err := vm.execute(context.Background(), vm.program.Init, nil, config.DefaultMaxStackSize, budget)
	return err
}

// Program returns the program the VM executes.
func (vm *VM) Program() *Program {
	return vm.program
}

// execute runs fn with args as its parameters until it returns at depth
// zero or faults. The stacks are empty again afterwards either way.
func (vm *VM) execute(ctx context.Context, fn *Function, args []Value, stackLimit int, budget int64) (result Value, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	vm.ctx = ctx
	vm.stackLimit = stackLimit
	vm.budget = budget
	vm.executed = 0
	vm.resetStack()

	defer func() {
		if r := recover(); r != nil {
			f, ok := r.(*Fault)
			if !ok {
				panic(r)
			}
			result, err = VoidVal(), f
		}
		vm.resetStack()
	}()

	for _, a := range args {
		vm.push(a)
	}
	vm.callFunction(fn, len(args))
	if ctx.Err() != nil {
		return VoidVal(), vm.fault(ctx.Err(), "run cancelled: %v", ctx.Err())
	}
	return vm.run()
}

// run is the main interpreter loop
func (vm *VM) run() (Value, error) {
	// Instruction counter for periodic context checks
	opsSinceCheck := 0

	for {
		opsSinceCheck++
		if opsSinceCheck >= checkInterval {
			opsSinceCheck = 0
			select {
			case <-vm.ctx.Done():
				return VoidVal(), vm.fault(vm.ctx.Err(), "run cancelled: %v", vm.ctx.Err())
			default:
			}
		}
		if vm.budget > 0 {
			vm.executed++
			if vm.executed > vm.budget {
				return VoidVal(), vm.fault(ErrBudgetExhausted, "executed %d instructions", vm.budget)
			}
		}

		op := Opcode(vm.readByte())
		switch op {
		case OP_RETURN:
			result := vm.pop()
			vm.popFrame()
			if len(vm.frames) == 0 {
				return result, nil
			}
			vm.push(result)

		case OP_RETURN_VOID:
			vm.popFrame()
			if len(vm.frames) == 0 {
				return VoidVal(), nil
			}

		default:
			if err := vm.executeOneOp(op); err != nil {
				return VoidVal(), err
			}
		}
	}
}

func (vm *VM) resetStack() {
	clear(vm.stack[:vm.sp])
	vm.sp = 0
	vm.frames = vm.frames[:0]
	vm.frame = nil
}

// Stack operations
func (vm *VM) push(v Value) {
	if vm.sp >= vm.stackLimit {
		panic(vm.fault(ErrStackOverflow, "operand stack exhausted (%d values)", vm.stackLimit))
	}
	if vm.sp >= len(vm.stack) {
		// Grow by doubling, up to the limit
		size := min(len(vm.stack)*2, vm.stackLimit)
		newStack := make([]Value, size)
		copy(newStack, vm.stack[:vm.sp])
		vm.stack = newStack
	}
	vm.stack[vm.sp] = v
	vm.sp++
}

func (vm *VM) pop() Value {
	if vm.sp <= vm.frame.base {
		panic(vm.fault(ErrInvalidBytecode, "stack underflow"))
	}
	vm.sp--
	v := vm.stack[vm.sp]
	vm.stack[vm.sp] = Value{}
	return v
}

func (vm *VM) peek(distance int) Value {
	idx := vm.sp - 1 - distance
	if idx < vm.frame.base {
		panic(vm.fault(ErrInvalidBytecode, "stack underflow"))
	}
	return vm.stack[idx]
}

// Read helpers
func (vm *VM) readByte() byte {
	if vm.frame.ip >= len(vm.frame.chunk.Code) {
		panic(vm.fault(ErrInvalidBytecode, "truncated bytecode in %s", vm.frame.function.Name))
	}
	b := vm.frame.chunk.Code[vm.frame.ip]
	vm.frame.ip++
	return b
}

func (vm *VM) readU16() int {
	high := vm.readByte()
	low := vm.readByte()
	return int(high)<<8 | int(low)
}

// fault builds a RuntimeFault positioned at the current instruction, with
// the call trace innermost first.
func (vm *VM) fault(cause error, format string, args ...interface{}) *Fault {
	f := &Fault{Err: cause, Message: fmt.Sprintf(format, args...)}
	for i := len(vm.frames) - 1; i >= 0; i-- {
		fr := &vm.frames[i]
		entry := TraceEntry{Function: fr.function.Name}
		if ip := fr.ip - 1; ip >= 0 && ip < len(fr.chunk.Lines) {
			entry.Line = fr.chunk.Lines[ip]
			entry.Column = fr.chunk.Columns[ip]
		}
		if i == len(vm.frames)-1 {
			f.Function, f.Line, f.Column = entry.Function, entry.Line, entry.Column
		}
		f.Trace = append(f.Trace, entry)
	}
	return f
}
