package vm

import (
	"github.com/funvibe/mscript/internal/ast"
)

func (c *Compiler) compileWhile(ws *ast.WhileStatement) {
	loopStart := c.currentChunk().Len()
	c.compileExpression(ws.Condition)
	exitJump := c.emitJump(OP_JUMP_IF_FALSE, ws.Token)

	c.loopStack = append(c.loopStack, LoopContext{continueTarget: loopStart})
	c.compileBlock(ws.Body)
	c.emitLoop(loopStart, ws.Token)

	c.patchJump(exitJump)
	c.endLoop()
}

// compileFor lowers for (init; cond; post) body. continue jumps forward to
// the post statement.
func (c *Compiler) compileFor(fs *ast.ForStatement) {
	c.beginScope()
	if fs.Init != nil {
		c.compileStatement(fs.Init)
	}

	loopStart := c.currentChunk().Len()
	exitJump := -1
	if fs.Condition != nil {
		c.compileExpression(fs.Condition)
		exitJump = c.emitJump(OP_JUMP_IF_FALSE, fs.Token)
	}

	c.loopStack = append(c.loopStack, LoopContext{continueTarget: -1})
	c.compileBlock(fs.Body)

	loop := &c.loopStack[len(c.loopStack)-1]
	for _, jump := range loop.continueJumps {
		c.patchJump(jump)
	}
	if fs.Post != nil {
		c.compileStatement(fs.Post)
	}
	c.emitLoop(loopStart, fs.Token)

	if exitJump >= 0 {
		c.patchJump(exitJump)
	}
	c.endLoop()
	c.endScope()
}

// endLoop patches the breaks of the innermost loop to the current offset.
func (c *Compiler) endLoop() {
	loop := c.loopStack[len(c.loopStack)-1]
	for _, jump := range loop.breakJumps {
		c.patchJump(jump)
	}
	c.loopStack = c.loopStack[:len(c.loopStack)-1]
}

func (c *Compiler) compileBreak(bs *ast.BreakStatement) {
	if len(c.loopStack) == 0 {
		c.fail(bs.Token, "break outside of a loop")
	}
	loop := &c.loopStack[len(c.loopStack)-1]
	loop.breakJumps = append(loop.breakJumps, c.emitJump(OP_JUMP, bs.Token))
}

func (c *Compiler) compileContinue(cs *ast.ContinueStatement) {
	if len(c.loopStack) == 0 {
		c.fail(cs.Token, "continue outside of a loop")
	}
	loop := &c.loopStack[len(c.loopStack)-1]
	if loop.continueTarget >= 0 {
		c.emitLoop(loop.continueTarget, cs.Token)
		return
	}
	loop.continueJumps = append(loop.continueJumps, c.emitJump(OP_JUMP, cs.Token))
}
