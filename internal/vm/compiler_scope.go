package vm

import (
	"github.com/funvibe/mscript/internal/token"
	"github.com/funvibe/mscript/internal/typesystem"
)

// beginScope starts a new scope
func (c *Compiler) beginScope() {
	c.scopeDepth++
}

// endScope ends the current scope. Locals live in fixed frame slots, not on
// the operand stack, so nothing is emitted: the slots are simply free for
// reuse by the next sibling scope.
func (c *Compiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].Depth > c.scopeDepth {
		c.locals = c.locals[:len(c.locals)-1]
		c.slotCount--
	}
}

// addLocal assigns the next free slot to a local variable
func (c *Compiler) addLocal(name string, tok token.Token) int {
	slot := c.slotCount
	if slot > 0xffff {
		c.fail(tok, "too many local variables in function %s", c.function.Name)
	}
	c.locals = append(c.locals, Local{Name: name, Depth: c.scopeDepth, Slot: slot})
	c.slotCount++
	if c.slotCount > c.function.LocalCount {
		c.function.LocalCount = c.slotCount
	}
	return slot
}

// resolveLocal looks up a local variable by name, innermost first
func (c *Compiler) resolveLocal(name string) int {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].Name == name {
			return c.locals[i].Slot
		}
	}
	return -1
}

// emit helpers

func (c *Compiler) currentChunk() *Chunk {
	return c.function.Chunk
}

func (c *Compiler) emit(op Opcode, tok token.Token) {
	c.currentChunk().WriteOp(op, tok.Line, tok.Column)
}

func (c *Compiler) emitByte(b byte, tok token.Token) {
	c.currentChunk().Write(b, tok.Line, tok.Column)
}

func (c *Compiler) emitU16Op(op Opcode, operand int, tok token.Token) {
	if operand > 0xffff {
		c.fail(tok, "operand %d out of range for %s", operand, op)
	}
	c.emit(op, tok)
	c.currentChunk().WriteU16(operand, tok.Line, tok.Column)
}

func (c *Compiler) emitConstant(v Value, tok token.Token) {
	c.emitU16Op(OP_CONST, c.addConstant(v, tok), tok)
}

func (c *Compiler) emitZero(t typesystem.Type, tok token.Token) {
	c.emitU16Op(OP_ZERO, c.addType(t, tok), tok)
}

func (c *Compiler) emitJump(op Opcode, tok token.Token) int {
	c.emit(op, tok)
	c.emitByte(0xff, tok)
	c.emitByte(0xff, tok)
	return c.currentChunk().Len() - 2
}

// patchJump points the jump operand at offset to the current end of code.
func (c *Compiler) patchJump(offset int) {
	jump := c.currentChunk().Len() - offset - 2
	if jump > 0xffff {
		c.fail(token.Token{}, "jump too far in function %s", c.function.Name)
	}
	c.currentChunk().Code[offset] = byte(jump >> 8)
	c.currentChunk().Code[offset+1] = byte(jump)
}

// emitLoop emits a backward jump to loopStart.
func (c *Compiler) emitLoop(loopStart int, tok token.Token) {
	c.emit(OP_LOOP, tok)
	offset := c.currentChunk().Len() - loopStart + 2
	if offset > 0xffff {
		c.fail(tok, "loop body too large in function %s", c.function.Name)
	}
	c.currentChunk().WriteU16(offset, tok.Line, tok.Column)
}
