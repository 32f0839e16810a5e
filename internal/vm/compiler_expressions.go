package vm

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/linefeed-lang/linefeed/internal/ast"
	"github.com/linefeed-lang/linefeed/internal/token"
)

func (c *Compiler) compileRegexLiteral(lit *ast.RegexLiteral) error {
	pattern := lit.Pattern
	goPattern := pattern
	if strings.ContainsRune(lit.Flags, 'i') {
		goPattern = "(?i)" + goPattern
	}
	re, err := regexp.Compile(goPattern)
	if err != nil {
		return &CompileError{
			Line:    lit.Token.Line,
			Column:  lit.Token.Column,
			Message: fmt.Sprintf("invalid regex /%s/: %v", pattern, err),
		}
	}
	obj := &ObjRegex{
		Pattern:   pattern,
		Flags:     lit.Flags,
		Re:        re,
		ParseNums: strings.ContainsRune(lit.Flags, 'n'),
	}
	c.emitConstant(ObjVal(obj), lit.Token)
	return nil
}

func (c *Compiler) compileRead(ident *ast.Identifier) error {
	switch ident.Scope {
	case ast.ScopeLocal:
		c.emitOp(OP_GET_LOCAL, ident.Token)
		c.emitU16(ident.Slot, ident.Token)
	case ast.ScopeUpvalue:
		c.emitOp(OP_GET_UPVALUE, ident.Token)
		c.emitByte(byte(ident.Slot), ident.Token)
	case ast.ScopeBuiltin:
		c.emitOp(OP_GET_BUILTIN, ident.Token)
		c.emitByte(byte(ident.Slot), ident.Token)
	default:
		return fmt.Errorf("unresolved identifier '%s' reached the compiler", ident.Name)
	}
	c.slots++
	return nil
}

// emitStore writes the assignment opcode for a resolved target. The
// assigned value stays on the stack as the expression result.
func (c *Compiler) emitStore(ident *ast.Identifier) error {
	switch ident.Scope {
	case ast.ScopeLocal:
		c.emitOp(OP_SET_LOCAL, ident.Token)
		c.emitU16(ident.Slot, ident.Token)
	case ast.ScopeUpvalue:
		c.emitOp(OP_SET_UPVALUE, ident.Token)
		c.emitByte(byte(ident.Slot), ident.Token)
	default:
		return fmt.Errorf("invalid assignment target '%s'", ident.Name)
	}
	return nil
}

func (c *Compiler) compilePrefix(expr *ast.PrefixExpression) error {
	if err := c.compileExpression(expr.Right); err != nil {
		return err
	}
	switch expr.Operator {
	case token.MINUS:
		c.emitOp(OP_NEG, expr.Token)
	case token.NOT:
		c.emitOp(OP_NOT, expr.Token)
	default:
		return fmt.Errorf("unknown prefix operator %s", expr.Operator)
	}
	return nil
}

var binaryOps = map[token.TokenType]Opcode{
	token.PLUS:     OP_ADD,
	token.MINUS:    OP_SUB,
	token.ASTERISK: OP_MUL,
	token.SLASH:    OP_DIV,
	token.SLASH2:   OP_FLOORDIV,
	token.PERCENT:  OP_MOD,
	token.POWER:    OP_POW,
	token.AMP:      OP_BAND,
	token.EQ:       OP_EQ,
	token.NOT_EQ:   OP_NEQ,
	token.LT:       OP_LT,
	token.LTE:      OP_LTE,
	token.GT:       OP_GT,
	token.GTE:      OP_GTE,
	token.XOR:      OP_XOR,
	token.IN:       OP_IN,
}

func (c *Compiler) compileInfix(expr *ast.InfixExpression) error {
	switch expr.Operator {
	case token.AND:
		return c.compileAnd(expr)
	case token.OR:
		return c.compileOr(expr)
	}

	if err := c.compileExpression(expr.Left); err != nil {
		return err
	}
	if err := c.compileExpression(expr.Right); err != nil {
		return err
	}
	op, ok := binaryOps[expr.Operator]
	if !ok {
		return fmt.Errorf("unknown infix operator %s", expr.Operator)
	}
	c.emitOp(op, expr.Token)
	c.slots--
	return nil
}

// compileAnd short-circuits: a falsy left operand yields false without
// evaluating the right side.
func (c *Compiler) compileAnd(expr *ast.InfixExpression) error {
	if err := c.compileExpression(expr.Left); err != nil {
		return err
	}
	skip := c.emitJump(OP_JUMP_IF_FALSE, expr.Token)
	c.slots--
	if err := c.compileExpression(expr.Right); err != nil {
		return err
	}
	end := c.emitJump(OP_JUMP, expr.Token)
	c.patchJump(skip)
	c.emitOp(OP_FALSE, expr.Token)
	c.patchJump(end)
	return nil
}

// compileOr keeps the left operand when it is truthy; otherwise it pops
// it and evaluates the right side.
func (c *Compiler) compileOr(expr *ast.InfixExpression) error {
	if err := c.compileExpression(expr.Left); err != nil {
		return err
	}
	keep := c.emitJump(OP_JUMP_IF_TRUTHY, expr.Token)
	c.slots--
	if err := c.compileExpression(expr.Right); err != nil {
		return err
	}
	c.patchJump(keep)
	return nil
}

func (c *Compiler) compileRange(expr *ast.RangeExpression) error {
	if err := c.compileExpression(expr.Start); err != nil {
		return err
	}
	var flags byte
	if expr.Inclusive {
		flags |= rangeInclusive
	}
	if expr.End == nil {
		flags |= rangeOpenEnded
	} else {
		if err := c.compileExpression(expr.End); err != nil {
			return err
		}
		c.slots--
	}
	c.emitOp(OP_RANGE, expr.Token)
	c.emitByte(flags, expr.Token)
	return nil
}

func (c *Compiler) compileListLiteral(lit *ast.ListLiteral) error {
	for _, el := range lit.Elements {
		if err := c.compileExpression(el); err != nil {
			return err
		}
	}
	c.emitOp(OP_MAKE_LIST, lit.Token)
	c.emitU16(len(lit.Elements), lit.Token)
	c.slots -= len(lit.Elements) - 1
	return nil
}

func (c *Compiler) compileTupleLiteral(lit *ast.TupleLiteral) error {
	for _, el := range lit.Elements {
		if err := c.compileExpression(el); err != nil {
			return err
		}
	}
	c.emitOp(OP_MAKE_TUPLE, lit.Token)
	c.emitU16(len(lit.Elements), lit.Token)
	c.slots -= len(lit.Elements) - 1
	return nil
}

func (c *Compiler) compileMapLiteral(lit *ast.MapLiteral) error {
	for _, pair := range lit.Pairs {
		if err := c.compileExpression(pair.Key); err != nil {
			return err
		}
		if err := c.compileExpression(pair.Value); err != nil {
			return err
		}
	}
	c.emitOp(OP_MAKE_MAP, lit.Token)
	c.emitU16(len(lit.Pairs), lit.Token)
	c.slots -= len(lit.Pairs)*2 - 1
	return nil
}

// compoundOp maps a compound assignment's underlying operator to its
// opcode. `+=` and `&=` use the in-place variants so sets mutate the
// shared cell instead of rebinding a fresh copy.
func compoundOp(op token.TokenType) (Opcode, error) {
	switch op {
	case token.PLUS:
		return OP_ADD_IP, nil
	case token.AMP:
		return OP_BAND_IP, nil
	case token.MINUS:
		return OP_SUB, nil
	case token.ASTERISK:
		return OP_MUL, nil
	case token.SLASH:
		return OP_DIV, nil
	case token.PERCENT:
		return OP_MOD, nil
	}
	return 0, fmt.Errorf("unknown compound assignment operator %s", op)
}

func (c *Compiler) compileAssign(expr *ast.AssignExpression) error {
	if expr.Operator == token.ASSIGN {
		if err := c.compileExpression(expr.Value); err != nil {
			return err
		}
		return c.emitStore(expr.Name)
	}

	if err := c.compileRead(expr.Name); err != nil {
		return err
	}
	if err := c.compileExpression(expr.Value); err != nil {
		return err
	}
	op, err := compoundOp(expr.Operator)
	if err != nil {
		return err
	}
	c.emitOp(op, expr.Token)
	c.slots--
	return c.emitStore(expr.Name)
}

func (c *Compiler) compileIndexAssign(expr *ast.IndexAssignExpression) error {
	if err := c.compileExpression(expr.Object); err != nil {
		return err
	}
	if err := c.compileExpression(expr.Index); err != nil {
		return err
	}

	if expr.Operator != token.ASSIGN {
		c.emitOp(OP_DUP2, expr.Token)
		c.slots += 2
		c.emitOp(OP_INDEX, expr.Token)
		c.slots--
		if err := c.compileExpression(expr.Value); err != nil {
			return err
		}
		op, err := compoundOp(expr.Operator)
		if err != nil {
			return err
		}
		c.emitOp(op, expr.Token)
		c.slots--
	} else {
		if err := c.compileExpression(expr.Value); err != nil {
			return err
		}
	}

	c.emitOp(OP_SET_INDEX, expr.Token)
	c.slots -= 2
	return nil
}

func (c *Compiler) compileDestructure(expr *ast.DestructureExpression) error {
	if err := c.compileExpression(expr.Value); err != nil {
		return err
	}
	if err := c.spreadInto(expr.Targets, expr.Token); err != nil {
		return err
	}
	c.emitOp(OP_NIL, expr.Token)
	c.slots++
	return nil
}

// spreadInto unpacks the value on top of the stack into the targets,
// consuming it.
func (c *Compiler) spreadInto(targets []ast.Expression, tok token.Token) error {
	n := len(targets)
	c.emitOp(OP_SPREAD, tok)
	c.emitByte(byte(n), tok)
	c.slots += n - 1

	// Elements are pushed left to right, so assign from the top down.
	for i := n - 1; i >= 0; i-- {
		ident, ok := targets[i].(*ast.Identifier)
		if !ok {
			return fmt.Errorf("invalid destructuring target %T", targets[i])
		}
		if err := c.emitStore(ident); err != nil {
			return err
		}
		c.emitOp(OP_POP, ident.Token)
		c.slots--
	}
	return nil
}

func (c *Compiler) compileIndex(expr *ast.IndexExpression) error {
	if err := c.compileExpression(expr.Object); err != nil {
		return err
	}
	if err := c.compileExpression(expr.Index); err != nil {
		return err
	}
	c.emitOp(OP_INDEX, expr.Token)
	c.slots--
	return nil
}

func (c *Compiler) compileCall(expr *ast.CallExpression) error {
	if err := c.compileExpression(expr.Callee); err != nil {
		return err
	}
	for _, arg := range expr.Args {
		if err := c.compileExpression(arg); err != nil {
			return err
		}
	}
	c.emitOp(OP_CALL, expr.Token)
	c.emitByte(byte(len(expr.Args)), expr.Token)
	c.slots -= len(expr.Args)
	return nil
}

// regexMethodOps are methods with dedicated opcodes. They take a single
// regex argument.
var regexMethodOps = map[string]Opcode{
	"find":     OP_FIND,
	"find_all": OP_FIND_ALL,
	"is_match": OP_IS_MATCH,
}

func (c *Compiler) compileMethodCall(expr *ast.MethodCallExpression) error {
	if err := c.compileExpression(expr.Receiver); err != nil {
		return err
	}
	for _, arg := range expr.Args {
		if err := c.compileExpression(arg); err != nil {
			return err
		}
	}

	if op, ok := regexMethodOps[expr.Method]; ok && len(expr.Args) == 1 {
		c.emitOp(op, expr.Token)
		c.slots--
		return nil
	}

	nameIdx := c.chunk().AddConstant(StrVal(expr.Method))
	c.emitOp(OP_METHOD, expr.Token)
	c.emitU16(nameIdx, expr.Token)
	c.emitByte(byte(len(expr.Args)), expr.Token)
	c.slots -= len(expr.Args)
	return nil
}

func (c *Compiler) compileFunctionLiteral(lit *ast.FunctionLiteral) error {
	fn := &CompiledFunction{
		Arity:        len(lit.Params),
		Chunk:        NewChunk(c.chunk().File),
		Name:         lit.Name,
		LocalCount:   lit.LocalCount,
		UpvalueCount: len(lit.Upvalues),
	}

	sub := &Compiler{function: fn, enclosing: c, localCount: lit.LocalCount}
	if err := sub.compileExpression(lit.Body); err != nil {
		return err
	}
	sub.emitOp(OP_RETURN, lit.Token)
	if sub.err != nil {
		return sub.err
	}
	fn.LocalCount = sub.localCount

	fnIdx := c.chunk().AddConstant(ObjVal(fn))
	c.emitOp(OP_CLOSURE, lit.Token)
	c.emitU16(fnIdx, lit.Token)
	for _, uv := range lit.Upvalues {
		if uv.IsLocal {
			c.emitByte(1, lit.Token)
		} else {
			c.emitByte(0, lit.Token)
		}
		c.emitU16(uv.Index, lit.Token)
	}
	c.slots++
	return nil
}
