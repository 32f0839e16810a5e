package vm

import (
	"fmt"
)

// run executes frames until the frame count drops below stopDepth or a
// HALT is reached. The result of the finished frame is returned.
func (v *VM) run(stopDepth int) (Value, error) {
	for {
		frame := &v.frames[len(v.frames)-1]
		chunk := frame.closure.Function.Chunk
		code := chunk.Code

		opOffset := frame.ip
		op := Opcode(code[frame.ip])
		frame.ip++

		if v.profiler != nil {
			v.profiler.record(chunk, opOffset, op)
		}

		switch op {
		case OP_CONST:
			idx := chunk.ReadU16(frame.ip)
			frame.ip += 2
			v.push(chunk.Constants[idx])

		case OP_NIL:
			v.push(NilVal())
		case OP_TRUE:
			v.push(BoolVal(true))
		case OP_FALSE:
			v.push(BoolVal(false))

		case OP_POP:
			v.pop()
		case OP_POPN:
			n := int(code[frame.ip])
			frame.ip++
			v.stack = v.stack[:len(v.stack)-n]
		case OP_DUP:
			v.push(v.peek(0))
		case OP_DUP2:
			b := v.peek(0)
			a := v.peek(1)
			v.push(a)
			v.push(b)

		case OP_ADD, OP_SUB, OP_MUL, OP_DIV, OP_FLOORDIV, OP_MOD, OP_POW,
			OP_BAND, OP_ADD_IP, OP_BAND_IP, OP_XOR, OP_IN,
			OP_LT, OP_LTE, OP_GT, OP_GTE:
			b := v.pop()
			a := v.pop()
			result, err := binaryOp(op, a, b)
			if err != nil {
				return NilVal(), v.errAt(chunk, opOffset, err)
			}
			v.push(result)

		case OP_EQ:
			b := v.pop()
			a := v.pop()
			v.push(BoolVal(a.Equals(b)))
		case OP_NEQ:
			b := v.pop()
			a := v.pop()
			v.push(BoolVal(!a.Equals(b)))

		case OP_NEG:
			a := v.pop()
			result, err := negate(a)
			if err != nil {
				return NilVal(), v.errAt(chunk, opOffset, err)
			}
			v.push(result)
		case OP_NOT:
			v.push(BoolVal(!v.pop().Truthy()))

		case OP_GET_LOCAL:
			slot := chunk.ReadU16(frame.ip)
			frame.ip += 2
			v.push(v.stack[frame.base+slot])
		case OP_SET_LOCAL:
			slot := chunk.ReadU16(frame.ip)
			frame.ip += 2
			v.stack[frame.base+slot] = v.peek(0)
		case OP_GET_UPVALUE:
			idx := int(code[frame.ip])
			frame.ip++
			v.push(v.readUpvalue(frame.closure.Upvalues[idx]))
		case OP_SET_UPVALUE:
			idx := int(code[frame.ip])
			frame.ip++
			v.writeUpvalue(frame.closure.Upvalues[idx], v.peek(0))
		case OP_GET_BUILTIN:
			idx := int(code[frame.ip])
			frame.ip++
			v.push(ObjVal(builtinByIndex(idx)))

		case OP_JUMP:
			offset := chunk.ReadU16(frame.ip)
			frame.ip += 2 + offset
		case OP_JUMP_IF_FALSE:
			offset := chunk.ReadU16(frame.ip)
			frame.ip += 2
			if !v.pop().Truthy() {
				frame.ip += offset
			}
		case OP_JUMP_IF_TRUTHY:
			offset := chunk.ReadU16(frame.ip)
			frame.ip += 2
			if v.peek(0).Truthy() {
				frame.ip += offset
			} else {
				v.pop()
			}
		case OP_LOOP:
			offset := chunk.ReadU16(frame.ip)
			frame.ip += 2 - offset

		case OP_CALL:
			argc := int(code[frame.ip])
			frame.ip++
			callee := v.peek(argc)
			if err := v.callValue(callee, argc); err != nil {
				return NilVal(), v.errAt(chunk, opOffset, err)
			}

		case OP_RETURN:
			result := v.pop()
			v.closeUpvalues(frame.base)
			v.stack = v.stack[:frame.base-1]
			v.frames = v.frames[:len(v.frames)-1]
			if len(v.frames) < stopDepth {
				return result, nil
			}
			v.push(result)

		case OP_CLOSURE:
			idx := chunk.ReadU16(frame.ip)
			frame.ip += 2
			fn := chunk.Constants[idx].Obj.(*CompiledFunction)
			closure := &ObjClosure{
				Function: fn,
				Upvalues: make([]*ObjUpvalue, fn.UpvalueCount),
			}
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := code[frame.ip] == 1
				frame.ip++
				index := chunk.ReadU16(frame.ip)
				frame.ip += 2
				if isLocal {
					closure.Upvalues[i] = v.captureUpvalue(frame.base + index)
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}
			v.push(ObjVal(closure))

		case OP_MAKE_LIST:
			n := chunk.ReadU16(frame.ip)
			frame.ip += 2
			elements := make([]Value, n)
			copy(elements, v.stack[len(v.stack)-n:])
			v.stack = v.stack[:len(v.stack)-n]
			v.push(ObjVal(&ObjList{Elements: elements}))
		case OP_MAKE_TUPLE:
			n := chunk.ReadU16(frame.ip)
			frame.ip += 2
			elements := make([]Value, n)
			copy(elements, v.stack[len(v.stack)-n:])
			v.stack = v.stack[:len(v.stack)-n]
			v.push(ObjVal(&ObjTuple{Elements: elements}))
		case OP_MAKE_MAP:
			n := chunk.ReadU16(frame.ip)
			frame.ip += 2
			m := NewMap()
			pairs := v.stack[len(v.stack)-n*2:]
			var badKey *Value
			for i := 0; i < n; i++ {
				key, val := pairs[i*2], pairs[i*2+1]
				if !m.Set(key, val) {
					badKey = &key
					break
				}
			}
			v.stack = v.stack[:len(v.stack)-n*2]
			if badKey != nil {
				err := &RuntimeError{Kind: ErrTypeMismatch,
					Message: fmt.Sprintf("Cannot use type '%s' as a map key", badKey.Kind())}
				return NilVal(), v.errAt(chunk, opOffset, err)
			}
			v.push(ObjVal(m))

		case OP_RANGE:
			flags := code[frame.ip]
			frame.ip++
			r := &ObjRange{
				Inclusive: flags&rangeInclusive != 0,
				OpenEnded: flags&rangeOpenEnded != 0,
			}
			if !r.OpenEnded {
				end := v.pop()
				if !end.IsInt() {
					err := &RuntimeError{Kind: ErrTypeMismatch,
						Message: fmt.Sprintf("Range bounds must be integers, got '%s'", end.Kind())}
					return NilVal(), v.errAt(chunk, opOffset, err)
				}
				r.End = end.AsInt()
			}
			start := v.pop()
			if !start.IsInt() {
				err := &RuntimeError{Kind: ErrTypeMismatch,
					Message: fmt.Sprintf("Range bounds must be integers, got '%s'", start.Kind())}
				return NilVal(), v.errAt(chunk, opOffset, err)
			}
			r.Start = start.AsInt()
			v.push(ObjVal(r))

		case OP_INDEX:
			key := v.pop()
			obj := v.pop()
			result, err := indexValue(obj, key)
			if err != nil {
				return NilVal(), v.errAt(chunk, opOffset, err)
			}
			v.push(result)
		case OP_SET_INDEX:
			val := v.pop()
			key := v.pop()
			obj := v.pop()
			if err := setIndexValue(obj, key, val); err != nil {
				return NilVal(), v.errAt(chunk, opOffset, err)
			}
			v.push(val)

		case OP_SPREAD:
			n := int(code[frame.ip])
			frame.ip++
			val := v.pop()
			elements, err := spreadValue(val, n)
			if err != nil {
				return NilVal(), v.errAt(chunk, opOffset, err)
			}
			for _, el := range elements {
				v.push(el)
			}

		case OP_ITER:
			slot := chunk.ReadU16(frame.ip)
			frame.ip += 2
			it, err := makeIterator(v.pop())
			if err != nil {
				return NilVal(), v.errAt(chunk, opOffset, err)
			}
			v.stack[frame.base+slot] = ObjVal(it)
		case OP_ITER_NEXT:
			slot := chunk.ReadU16(frame.ip)
			offset := chunk.ReadU16(frame.ip + 2)
			frame.ip += 4
			it := v.stack[frame.base+slot].Obj.(*ObjIterator)
			if el, ok := it.Next(); ok {
				v.push(el)
			} else {
				frame.ip += offset
			}

		case OP_METHOD:
			nameIdx := chunk.ReadU16(frame.ip)
			argc := int(code[frame.ip+2])
			frame.ip += 3
			name := chunk.Constants[nameIdx].AsStr()
			args := make([]Value, argc)
			copy(args, v.stack[len(v.stack)-argc:])
			recv := v.peek(argc)
			v.stack = v.stack[:len(v.stack)-argc-1]
			result, err := callMethod(v, recv, name, args)
			if err != nil {
				return NilVal(), v.errAt(chunk, opOffset, err)
			}
			v.push(result)

		case OP_FIND, OP_FIND_ALL, OP_IS_MATCH:
			pattern := v.pop()
			subject := v.pop()
			result, err := regexOp(op, subject, pattern)
			if err != nil {
				return NilVal(), v.errAt(chunk, opOffset, err)
			}
			v.push(result)

		case OP_MATCH_FAIL:
			subject := v.pop()
			err := &RuntimeError{Kind: ErrPatternMatchFailure,
				Message: fmt.Sprintf("No match arm for value %s", subject.Repr())}
			return NilVal(), v.errAt(chunk, opOffset, err)

		case OP_HALT:
			return v.pop(), nil

		default:
			err := &RuntimeError{Kind: ErrInternal,
				Message: fmt.Sprintf("unknown opcode %d", op)}
			return NilVal(), v.errAt(chunk, opOffset, err)
		}
	}
}
