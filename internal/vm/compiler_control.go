package vm

import (
	"fmt"

	"github.com/linefeed-lang/linefeed/internal/ast"
	"github.com/linefeed-lang/linefeed/internal/token"
)

func (c *Compiler) compileIf(expr *ast.IfExpression) error {
	if err := c.compileExpression(expr.Condition); err != nil {
		return err
	}
	elseJump := c.emitJump(OP_JUMP_IF_FALSE, expr.Token)
	c.slots--

	if err := c.compileExpression(expr.Then); err != nil {
		return err
	}
	endJump := c.emitJump(OP_JUMP, expr.Token)
	c.patchJump(elseJump)

	// The else path starts from the same stack height.
	c.slots--
	if expr.Else != nil {
		if err := c.compileExpression(expr.Else); err != nil {
			return err
		}
	} else {
		c.emitOp(OP_NIL, expr.Token)
		c.slots++
	}
	c.patchJump(endJump)
	return nil
}

func (c *Compiler) compileWhile(expr *ast.WhileExpression) error {
	loopStart := c.chunk().Len()
	c.loops = append(c.loops, loopContext{start: loopStart, slots: c.slots})

	if err := c.compileExpression(expr.Condition); err != nil {
		return err
	}
	exitJump := c.emitJump(OP_JUMP_IF_FALSE, expr.Token)
	c.slots--

	if err := c.compileExpression(expr.Body); err != nil {
		return err
	}
	c.emitOp(OP_POP, expr.Token)
	c.slots--
	c.emitLoop(loopStart, expr.Token)

	c.patchJump(exitJump)
	c.finishLoop(expr.Token)
	return nil
}

func (c *Compiler) compileFor(expr *ast.ForExpression) error {
	if err := c.compileExpression(expr.Iterable); err != nil {
		return err
	}

	// The live iterator lives in a hidden frame slot so break can leave
	// the loop without stack cleanup.
	iterSlot := c.localCount
	c.localCount++
	c.emitOp(OP_ITER, expr.Token)
	c.emitU16(iterSlot, expr.Token)
	c.slots--

	loopStart := c.chunk().Len()
	c.loops = append(c.loops, loopContext{start: loopStart, slots: c.slots})

	c.emitOp(OP_ITER_NEXT, expr.Token)
	c.emitU16(iterSlot, expr.Token)
	exitJump := c.chunk().Len()
	c.emitU16(0xFFFF, expr.Token)
	c.slots++

	if err := c.bindLoopTarget(expr.Target, expr.Token); err != nil {
		return err
	}

	if err := c.compileExpression(expr.Body); err != nil {
		return err
	}
	c.emitOp(OP_POP, expr.Token)
	c.slots--
	c.emitLoop(loopStart, expr.Token)

	c.patchJump(exitJump)
	c.finishLoop(expr.Token)
	return nil
}

// bindLoopTarget consumes the element on top of the stack.
func (c *Compiler) bindLoopTarget(target ast.Expression, tok token.Token) error {
	switch t := target.(type) {
	case *ast.Identifier:
		if err := c.emitStore(t); err != nil {
			return err
		}
		c.emitOp(OP_POP, t.Token)
		c.slots--
		return nil
	case *ast.DestructureExpression:
		return c.spreadInto(t.Targets, tok)
	default:
		return fmt.Errorf("invalid loop target %T", target)
	}
}

// finishLoop patches break jumps and pushes the loop's null result.
func (c *Compiler) finishLoop(tok token.Token) {
	loop := c.loops[len(c.loops)-1]
	c.loops = c.loops[:len(c.loops)-1]
	for _, at := range loop.breaks {
		c.patchJump(at)
	}
	c.emitOp(OP_NIL, tok)
	c.slots++
}

func (c *Compiler) compileBreak(expr *ast.BreakExpression) error {
	if len(c.loops) == 0 {
		return fmt.Errorf("cannot break outside of loop")
	}
	loop := &c.loops[len(c.loops)-1]
	c.unwindTo(loop.slots, expr.Token)
	loop.breaks = append(loop.breaks, c.emitJump(OP_JUMP, expr.Token))

	// Code after a break is unreachable, but keep the bookkeeping of
	// the surrounding expression consistent.
	c.slots++
	return nil
}

func (c *Compiler) compileContinue(expr *ast.ContinueExpression) error {
	if len(c.loops) == 0 {
		return fmt.Errorf("cannot continue outside of loop")
	}
	loop := c.loops[len(c.loops)-1]
	c.unwindTo(loop.slots, expr.Token)
	c.emitLoop(loop.start, expr.Token)
	c.slots++
	return nil
}

// unwindTo pops working-stack values down to the given height without
// changing the compiler's own height counter.
func (c *Compiler) unwindTo(height int, tok token.Token) {
	n := c.slots - height
	if n <= 0 {
		return
	}
	if n == 1 {
		c.emitOp(OP_POP, tok)
		return
	}
	c.emitOp(OP_POPN, tok)
	c.emitByte(byte(n), tok)
}

func (c *Compiler) compileReturn(expr *ast.ReturnExpression) error {
	if expr.Value != nil {
		if err := c.compileExpression(expr.Value); err != nil {
			return err
		}
	} else {
		c.emitOp(OP_NIL, expr.Token)
		c.slots++
	}
	c.emitOp(OP_RETURN, expr.Token)
	return nil
}

func isWildcard(expr ast.Expression) bool {
	ident, ok := expr.(*ast.Identifier)
	return ok && ident.Name == "_"
}

func (c *Compiler) compileMatch(expr *ast.MatchExpression) error {
	if err := c.compileExpression(expr.Subject); err != nil {
		return err
	}
	base := c.slots

	var endJumps []int
	for _, arm := range expr.Arms {
		if isWildcard(arm.Pattern) {
			c.emitOp(OP_POP, expr.Token)
			c.slots--
			if err := c.compileExpression(arm.Body); err != nil {
				return err
			}
			endJumps = append(endJumps, c.emitJump(OP_JUMP, expr.Token))
			c.slots = base
			continue
		}

		c.emitOp(OP_DUP, expr.Token)
		c.slots++
		if err := c.compileExpression(arm.Pattern); err != nil {
			return err
		}
		c.emitOp(OP_EQ, expr.Token)
		c.slots--
		next := c.emitJump(OP_JUMP_IF_FALSE, expr.Token)
		c.slots--

		c.emitOp(OP_POP, expr.Token)
		c.slots--
		if err := c.compileExpression(arm.Body); err != nil {
			return err
		}
		endJumps = append(endJumps, c.emitJump(OP_JUMP, expr.Token))

		c.patchJump(next)
		c.slots = base
	}

	// Subject matched no arm.
	c.emitOp(OP_MATCH_FAIL, expr.Token)
	for _, at := range endJumps {
		c.patchJump(at)
	}
	c.slots = base
	return nil
}
