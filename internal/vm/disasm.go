package vm

import (
	"fmt"
	"strings"
)

// Disassemble renders a function's bytecode, including nested
// functions, for the --disasm flag and for debugging tests.
func Disassemble(fn *CompiledFunction) string {
	var sb strings.Builder
	disassembleFunction(&sb, fn)
	return sb.String()
}

func disassembleFunction(sb *strings.Builder, fn *CompiledFunction) {
	name := fn.Name
	if name == "" {
		name = "<lambda>"
	}
	fmt.Fprintf(sb, "== %s (arity %d, locals %d) ==\n", name, fn.Arity, fn.LocalCount)

	chunk := fn.Chunk
	var nested []*CompiledFunction
	for offset := 0; offset < chunk.Len(); {
		offset = disassembleInstruction(sb, chunk, offset, &nested)
	}
	for _, sub := range nested {
		sb.WriteByte('\n')
		disassembleFunction(sb, sub)
	}
}

func disassembleInstruction(sb *strings.Builder, chunk *Chunk, offset int, nested *[]*CompiledFunction) int {
	op := Opcode(chunk.Code[offset])
	name, ok := OpcodeNames[op]
	if !ok {
		name = fmt.Sprintf("UNKNOWN(%d)", op)
	}
	fmt.Fprintf(sb, "%04d %4d:%-3d %-16s", offset, chunk.Lines[offset], chunk.Columns[offset], name)
	offset++

	switch op {
	case OP_CONST:
		idx := chunk.ReadU16(offset)
		fmt.Fprintf(sb, " %d (%s)", idx, chunk.Constants[idx].Repr())
		offset += 2
	case OP_CLOSURE:
		idx := chunk.ReadU16(offset)
		offset += 2
		fn := chunk.Constants[idx].Obj.(*CompiledFunction)
		fmt.Fprintf(sb, " %d (%s)", idx, chunk.Constants[idx].Repr())
		for i := 0; i < fn.UpvalueCount; i++ {
			kind := "upvalue"
			if chunk.Code[offset] == 1 {
				kind = "local"
			}
			fmt.Fprintf(sb, " [%s %d]", kind, chunk.ReadU16(offset+1))
			offset += 3
		}
		*nested = append(*nested, fn)
	case OP_METHOD:
		idx := chunk.ReadU16(offset)
		argc := chunk.Code[offset+2]
		fmt.Fprintf(sb, " %s/%d", chunk.Constants[idx].AsStr(), argc)
		offset += 3
	case OP_ITER_NEXT:
		slot := chunk.ReadU16(offset)
		jump := chunk.ReadU16(offset + 2)
		fmt.Fprintf(sb, " slot %d -> %04d", slot, offset+4+jump)
		offset += 4
	case OP_JUMP, OP_JUMP_IF_FALSE, OP_JUMP_IF_TRUTHY:
		jump := chunk.ReadU16(offset)
		fmt.Fprintf(sb, " -> %04d", offset+2+jump)
		offset += 2
	case OP_LOOP:
		jump := chunk.ReadU16(offset)
		fmt.Fprintf(sb, " -> %04d", offset+2-jump)
		offset += 2
	case OP_GET_LOCAL, OP_SET_LOCAL, OP_ITER,
		OP_MAKE_LIST, OP_MAKE_TUPLE, OP_MAKE_MAP:
		fmt.Fprintf(sb, " %d", chunk.ReadU16(offset))
		offset += 2
	case OP_GET_UPVALUE, OP_SET_UPVALUE, OP_GET_BUILTIN,
		OP_CALL, OP_POPN, OP_SPREAD, OP_RANGE:
		fmt.Fprintf(sb, " %d", chunk.Code[offset])
		offset++
	}

	sb.WriteByte('\n')
	return offset
}
