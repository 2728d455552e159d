package vm

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of every function in p,
// the global initializer first.
func Disassemble(p *Program) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "; %s\n", p)
	if p.Init != nil {
		sb.WriteString(DisassembleFunction(p, p.Init))
	}
	for _, fn := range p.Functions {
		sb.WriteString(DisassembleFunction(p, fn))
	}
	return sb.String()
}

// DisassembleFunction returns the listing of a single function.
func DisassembleFunction(p *Program, fn *Function) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "== %s (locals: %d) ==\n", fn.Name, fn.LocalCount)

	chunk := fn.Chunk
	offset := 0
	for offset < len(chunk.Code) {
		offset = disassembleInstruction(&sb, p, chunk, offset)
	}
	return sb.String()
}

func disassembleInstruction(sb *strings.Builder, p *Program, chunk *Chunk, offset int) int {
	fmt.Fprintf(sb, "%04d ", offset)

	// Print line number
	if offset > 0 && chunk.Lines[offset] == chunk.Lines[offset-1] {
		sb.WriteString("   | ")
	} else {
		fmt.Fprintf(sb, "%4d ", chunk.Lines[offset])
	}

	op := Opcode(chunk.Code[offset])
	name := op.String()

	switch op {
	case OP_CONST:
		return operandInstruction(sb, name, chunk, offset, func(idx int) string {
			if idx < len(p.Constants) {
				return p.Constants[idx].Inspect()
			}
			return "(invalid)"
		})

	case OP_ZERO:
		return operandInstruction(sb, name, chunk, offset, func(idx int) string {
			if idx < len(p.Types) {
				return p.Types[idx].String()
			}
			return "(invalid)"
		})

	case OP_GET_GLOBAL, OP_SET_GLOBAL:
		return operandInstruction(sb, name, chunk, offset, func(idx int) string {
			if idx < len(p.Globals) {
				return p.Globals[idx].Name
			}
			return "(invalid)"
		})

	case OP_CALL:
		return operandInstruction(sb, name, chunk, offset, func(idx int) string {
			if idx < len(p.Functions) {
				return p.Functions[idx].Name
			}
			return "(invalid)"
		})

	case OP_CALL_NATIVE:
		return operandInstruction(sb, name, chunk, offset, func(idx int) string {
			if idx < len(p.Natives) {
				return p.Natives[idx].Signature.Name
			}
			return "(invalid)"
		})

	case OP_GET_LOCAL, OP_SET_LOCAL, OP_GET_FIELD, OP_INIT_FIELD, OP_MAKE_ARRAY:
		return operandInstruction(sb, name, chunk, offset, nil)

	case OP_STORE_LOCAL_PATH, OP_STORE_GLOBAL_PATH:
		return pathInstruction(sb, p, op, chunk, offset)

	case OP_CMP_INT, OP_CMP_FLOAT, OP_CMP_STRING, OP_CMP_BOOL, OP_CMP_POINTER:
		if offset+1 >= len(chunk.Code) {
			return truncated(sb, name, chunk)
		}
		cmp := chunk.Code[offset+1]
		cmpName := "?"
		if int(cmp) < len(cmpNames) {
			cmpName = cmpNames[cmp]
		}
		fmt.Fprintf(sb, "%-18s %s\n", name, cmpName)
		return offset + 2

	case OP_JUMP, OP_JUMP_IF_FALSE, OP_JUMP_IF_TRUE:
		return jumpInstruction(sb, name, 1, chunk, offset)
	case OP_LOOP:
		return jumpInstruction(sb, name, -1, chunk, offset)

	default:
		if _, ok := OpcodeNames[op]; !ok {
			fmt.Fprintf(sb, "Unknown opcode %d\n", op)
			return offset + 1
		}
		return simpleInstruction(sb, name, offset)
	}
}

func simpleInstruction(sb *strings.Builder, name string, offset int) int {
	fmt.Fprintf(sb, "%s\n", name)
	return offset + 1
}

// operandInstruction prints an instruction with one 16-bit operand, and
// what the operand refers to when describe is given.
func operandInstruction(sb *strings.Builder, name string, chunk *Chunk, offset int, describe func(int) string) int {
	if offset+2 >= len(chunk.Code) {
		return truncated(sb, name, chunk)
	}
	idx := chunk.ReadU16(offset + 1)
	if describe != nil {
		fmt.Fprintf(sb, "%-18s %4d '%s'\n", name, idx, describe(idx))
	} else {
		fmt.Fprintf(sb, "%-18s %4d\n", name, idx)
	}
	return offset + 3
}

func jumpInstruction(sb *strings.Builder, name string, sign int, chunk *Chunk, offset int) int {
	if offset+2 >= len(chunk.Code) {
		return truncated(sb, name, chunk)
	}
	jump := chunk.ReadU16(offset + 1)
	fmt.Fprintf(sb, "%-18s %4d -> %d\n", name, offset, offset+3+sign*jump)
	return offset + 3
}

func pathInstruction(sb *strings.Builder, p *Program, op Opcode, chunk *Chunk, offset int) int {
	name := op.String()
	if offset+3 >= len(chunk.Code) {
		return truncated(sb, name, chunk)
	}
	idx := chunk.ReadU16(offset + 1)
	n := int(chunk.Code[offset+3])
	if offset+3+n >= len(chunk.Code) {
		return truncated(sb, name, chunk)
	}
	root := fmt.Sprintf("%d", idx)
	if op == OP_STORE_GLOBAL_PATH && idx < len(p.Globals) {
		root = p.Globals[idx].Name
	}
	var path strings.Builder
	for _, step := range chunk.Code[offset+4 : offset+4+n] {
		if step == pathIndexStep {
			path.WriteString("[]")
		} else {
			fmt.Fprintf(&path, ".%d", step)
		}
	}
	fmt.Fprintf(sb, "%-18s %s%s\n", name, root, path.String())
	return offset + 4 + n
}

func truncated(sb *strings.Builder, name string, chunk *Chunk) int {
	fmt.Fprintf(sb, "%s (truncated)\n", name)
	return len(chunk.Code)
}
