package vm

import (
	"fmt"

	"github.com/linefeed-lang/linefeed/internal/ast"
	"github.com/linefeed-lang/linefeed/internal/token"
)

// loopContext tracks the enclosing loop for break/continue
type loopContext struct {
	start  int   // offset of the loop head (continue target)
	slots  int   // working stack height at loop entry
	breaks []int // break jumps to patch at loop exit
}

// Compiler turns a resolved AST into bytecode. Slot assignment already
// happened in the resolver; the compiler only tracks the working stack
// height so break/continue/return can unwind to a known depth.
type Compiler struct {
	function  *CompiledFunction
	enclosing *Compiler

	slots      int // working stack height above the frame's locals
	localCount int // frame slots; grows past the resolver's count for loop iterators

	loops []loopContext

	err error // first structural failure (jump too long)
}

// Compile compiles a resolved program into a top-level function.
func Compile(program *ast.Program) (*CompiledFunction, error) {
	fn := &CompiledFunction{
		Chunk:      NewChunk(program.File),
		Name:       "<script>",
		LocalCount: program.LocalCount,
	}
	c := &Compiler{function: fn, localCount: program.LocalCount}

	if err := c.compileSequence(program.Exprs, startToken(program)); err != nil {
		return nil, err
	}
	c.emitOp(OP_HALT, endToken(program))

	if c.err != nil {
		return nil, c.err
	}
	fn.LocalCount = c.localCount
	return fn, nil
}

func startToken(program *ast.Program) token.Token {
	if len(program.Exprs) > 0 {
		return program.Exprs[0].GetToken()
	}
	return token.Token{Line: 1, Column: 1}
}

func endToken(program *ast.Program) token.Token {
	if len(program.Exprs) > 0 {
		return program.Exprs[len(program.Exprs)-1].GetToken()
	}
	return token.Token{Line: 1, Column: 1}
}

func (c *Compiler) chunk() *Chunk {
	return c.function.Chunk
}

// Emit helpers

func (c *Compiler) emitOp(op Opcode, tok token.Token) {
	c.chunk().WriteOp(op, tok.Line, tok.Column)
}

func (c *Compiler) emitU16(v int, tok token.Token) {
	c.chunk().WriteU16(v, tok.Line, tok.Column)
}

func (c *Compiler) emitByte(b byte, tok token.Token) {
	c.chunk().Write(b, tok.Line, tok.Column)
}

func (c *Compiler) emitConstant(v Value, tok token.Token) {
	idx := c.chunk().AddConstant(v)
	c.emitOp(OP_CONST, tok)
	c.emitU16(idx, tok)
	c.slots++
}

// emitJump writes a forward jump with a placeholder offset and returns
// the offset position for patchJump.
func (c *Compiler) emitJump(op Opcode, tok token.Token) int {
	c.emitOp(op, tok)
	c.emitU16(0xFFFF, tok)
	return c.chunk().Len() - 2
}

func (c *Compiler) patchJump(at int) {
	jump := c.chunk().Len() - at - 2
	if jump > 0xFFFF && c.err == nil {
		c.err = fmt.Errorf("jump distance %d exceeds bytecode limit", jump)
		return
	}
	c.chunk().Code[at] = byte(jump >> 8)
	c.chunk().Code[at+1] = byte(jump)
}

// emitLoop writes a backward jump to start.
func (c *Compiler) emitLoop(start int, tok token.Token) {
	c.emitOp(OP_LOOP, tok)
	back := c.chunk().Len() - start + 2
	if back > 0xFFFF && c.err == nil {
		c.err = fmt.Errorf("loop body spans %d bytes, exceeds bytecode limit", back)
	}
	c.emitU16(back, tok)
}

// compileSequence compiles expressions keeping only the last value.
// An empty sequence evaluates to null.
func (c *Compiler) compileSequence(exprs []ast.Expression, tok token.Token) error {
	if len(exprs) == 0 {
		c.emitOp(OP_NIL, tok)
		c.slots++
		return nil
	}
	for i, expr := range exprs {
		if err := c.compileExpression(expr); err != nil {
			return err
		}
		if i < len(exprs)-1 {
			c.emitOp(OP_POP, expr.GetToken())
			c.slots--
		}
	}
	return nil
}

// compileExpression emits code leaving exactly one value on the stack.
func (c *Compiler) compileExpression(expr ast.Expression) error {
	switch node := expr.(type) {
	case *ast.NullLiteral:
		c.emitOp(OP_NIL, node.Token)
		c.slots++
	case *ast.BoolLiteral:
		if node.Value {
			c.emitOp(OP_TRUE, node.Token)
		} else {
			c.emitOp(OP_FALSE, node.Token)
		}
		c.slots++
	case *ast.IntLiteral:
		c.emitConstant(IntVal(node.Value), node.Token)
	case *ast.FloatLiteral:
		c.emitConstant(FloatVal(node.Value), node.Token)
	case *ast.StringLiteral:
		c.emitConstant(StrVal(node.Value), node.Token)
	case *ast.RegexLiteral:
		return c.compileRegexLiteral(node)
	case *ast.Identifier:
		return c.compileRead(node)
	case *ast.PrefixExpression:
		return c.compilePrefix(node)
	case *ast.InfixExpression:
		return c.compileInfix(node)
	case *ast.RangeExpression:
		return c.compileRange(node)
	case *ast.ListLiteral:
		return c.compileListLiteral(node)
	case *ast.TupleLiteral:
		return c.compileTupleLiteral(node)
	case *ast.MapLiteral:
		return c.compileMapLiteral(node)
	case *ast.AssignExpression:
		return c.compileAssign(node)
	case *ast.IndexAssignExpression:
		return c.compileIndexAssign(node)
	case *ast.DestructureExpression:
		return c.compileDestructure(node)
	case *ast.IndexExpression:
		return c.compileIndex(node)
	case *ast.CallExpression:
		return c.compileCall(node)
	case *ast.MethodCallExpression:
		return c.compileMethodCall(node)
	case *ast.FunctionLiteral:
		return c.compileFunctionLiteral(node)
	case *ast.BlockExpression:
		return c.compileSequence(node.Exprs, node.Token)
	case *ast.SequenceExpression:
		return c.compileSequence(node.Exprs, node.Token)
	case *ast.IfExpression:
		return c.compileIf(node)
	case *ast.WhileExpression:
		return c.compileWhile(node)
	case *ast.ForExpression:
		return c.compileFor(node)
	case *ast.MatchExpression:
		return c.compileMatch(node)
	case *ast.ReturnExpression:
		return c.compileReturn(node)
	case *ast.BreakExpression:
		return c.compileBreak(node)
	case *ast.ContinueExpression:
		return c.compileContinue(node)
	default:
		return fmt.Errorf("cannot compile %T", expr)
	}
	return nil
}
