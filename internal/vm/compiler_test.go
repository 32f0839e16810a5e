package vm

import (
	"strings"
	"testing"

	"github.com/linefeed-lang/linefeed/internal/lexer"
	"github.com/linefeed-lang/linefeed/internal/parser"
	"github.com/linefeed-lang/linefeed/internal/resolver"
)

func readOps(chunk *Chunk) []Opcode {
	var ops []Opcode
	for offset := 0; offset < chunk.Len(); {
		op := Opcode(chunk.Code[offset])
		ops = append(ops, op)
		offset++
		switch op {
		case OP_CONST, OP_GET_LOCAL, OP_SET_LOCAL, OP_ITER,
			OP_MAKE_LIST, OP_MAKE_TUPLE, OP_MAKE_MAP,
			OP_JUMP, OP_JUMP_IF_FALSE, OP_JUMP_IF_TRUTHY, OP_LOOP:
			offset += 2
		case OP_GET_UPVALUE, OP_SET_UPVALUE, OP_GET_BUILTIN,
			OP_CALL, OP_POPN, OP_SPREAD, OP_RANGE:
			offset++
		case OP_METHOD:
			offset += 3
		case OP_ITER_NEXT:
			offset += 4
		case OP_CLOSURE:
			idx := chunk.ReadU16(offset)
			offset += 2
			fn := chunk.Constants[idx].Obj.(*CompiledFunction)
			offset += 3 * fn.UpvalueCount
		}
	}
	return ops
}

func TestCompileArithmeticSequence(t *testing.T) {
	fn := compileSource(t, "1 + 2 * 3")
	want := []Opcode{OP_CONST, OP_CONST, OP_CONST, OP_MUL, OP_ADD, OP_HALT}
	got := readOps(fn.Chunk)
	if len(got) != len(want) {
		t.Fatalf("ops = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("op[%d] = %s, want %s", i, OpcodeNames[got[i]], OpcodeNames[want[i]])
		}
	}
}

func TestCompileConditionalJumpsResolve(t *testing.T) {
	fn := compileSource(t, "if 1 < 2 { 10 } else { 20 }")
	chunk := fn.Chunk
	for offset := 0; offset < chunk.Len(); {
		op := Opcode(chunk.Code[offset])
		switch op {
		case OP_JUMP, OP_JUMP_IF_FALSE:
			target := offset + 3 + chunk.ReadU16(offset+1)
			if target > chunk.Len() {
				t.Fatalf("%s at %d jumps past the chunk (to %d of %d)",
					OpcodeNames[op], offset, target, chunk.Len())
			}
			if chunk.ReadU16(offset+1) == 0xFFFF {
				t.Fatalf("%s at %d was never patched", OpcodeNames[op], offset)
			}
		}
		offset = instructionLen(chunk, offset)
	}
}

func instructionLen(chunk *Chunk, offset int) int {
	op := Opcode(chunk.Code[offset])
	offset++
	switch op {
	case OP_CONST, OP_GET_LOCAL, OP_SET_LOCAL, OP_ITER,
		OP_MAKE_LIST, OP_MAKE_TUPLE, OP_MAKE_MAP,
		OP_JUMP, OP_JUMP_IF_FALSE, OP_JUMP_IF_TRUTHY, OP_LOOP:
		return offset + 2
	case OP_GET_UPVALUE, OP_SET_UPVALUE, OP_GET_BUILTIN,
		OP_CALL, OP_POPN, OP_SPREAD, OP_RANGE:
		return offset + 1
	case OP_METHOD:
		return offset + 3
	case OP_ITER_NEXT:
		return offset + 4
	case OP_CLOSURE:
		idx := chunk.ReadU16(offset)
		fn := chunk.Constants[idx].Obj.(*CompiledFunction)
		return offset + 2 + 3*fn.UpvalueCount
	}
	return offset
}

func TestForLoopReservesIteratorSlot(t *testing.T) {
	fn := compileSource(t, "total = 0; for x in [1, 2] { total += x }; total")
	// total, x, plus one hidden slot holding the loop iterator.
	if fn.LocalCount != 3 {
		t.Errorf("LocalCount = %d, want 3", fn.LocalCount)
	}
}

func TestClosureRecordsUpvalues(t *testing.T) {
	fn := compileSource(t, "fn counter() { n = 0; || { n += 1; n } }; counter")
	var inner *CompiledFunction
	for _, c := range fn.Chunk.Constants {
		if sub, ok := c.Obj.(*CompiledFunction); ok {
			inner = sub
		}
	}
	if inner == nil {
		t.Fatal("no nested function constant")
	}
	var lambda *CompiledFunction
	for _, c := range inner.Chunk.Constants {
		if sub, ok := c.Obj.(*CompiledFunction); ok {
			lambda = sub
		}
	}
	if lambda == nil {
		t.Fatal("no lambda constant inside counter")
	}
	if lambda.UpvalueCount != 1 {
		t.Errorf("lambda UpvalueCount = %d, want 1", lambda.UpvalueCount)
	}
}

func TestInvalidRegexFailsAtCompileTime(t *testing.T) {
	src := `"x".is_match(r/(/)`
	l := lexer.New(src)
	p := parser.New(l)
	program := p.ParseProgram()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse error: %v", p.Errors()[0])
	}
	if errs := resolver.Resolve(program); len(errs) > 0 {
		t.Fatalf("resolve error: %v", errs[0])
	}
	_, err := Compile(program)
	if err == nil {
		t.Fatal("expected compile error for invalid regex")
	}
	if _, ok := err.(*CompileError); !ok {
		t.Fatalf("expected *CompileError, got %T: %v", err, err)
	}
}

func TestDisassembleRendersNestedFunctions(t *testing.T) {
	fn := compileSource(t, "fn add(a, b) { a + b }; add(1, 2)")
	out := Disassemble(fn)
	if !strings.Contains(out, "== <script>") {
		t.Errorf("missing script header:\n%s", out)
	}
	if !strings.Contains(out, "== add (arity 2") {
		t.Errorf("missing nested function header:\n%s", out)
	}
	if !strings.Contains(out, "OP_ADD") {
		t.Errorf("missing OP_ADD:\n%s", out)
	}
	if strings.Contains(out, "UNKNOWN(") {
		t.Errorf("disassembler lost sync:\n%s", out)
	}
}

func TestConstantPoolDeduplicates(t *testing.T) {
	fn := compileSource(t, `x = 1; y = 1; "a" + "a" + str(1)`)
	ints, strs := 0, 0
	for _, c := range fn.Chunk.Constants {
		if c.IsInt() && c.AsInt() == 1 {
			ints++
		}
		if c.IsStr() && c.AsStr() == "a" {
			strs++
		}
	}
	if ints != 1 {
		t.Errorf("constant 1 interned %d times, want 1", ints)
	}
	if strs != 1 {
		t.Errorf("constant \"a\" interned %d times, want 1", strs)
	}
}

func TestChunkTracksPositions(t *testing.T) {
	fn := compileSource(t, "1 +\n2")
	chunk := fn.Chunk
	lines := map[int]bool{}
	for _, line := range chunk.Lines {
		lines[line] = true
	}
	if !lines[1] || !lines[2] {
		t.Errorf("expected instructions on lines 1 and 2, got %v", chunk.Lines)
	}
}
