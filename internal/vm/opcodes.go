// Package vm implements the bytecode compiler and stack virtual machine.
package vm

// Opcode represents a single VM instruction
type Opcode byte

const (
	// Stack manipulation
	OP_CONST Opcode = iota // Push constant from pool (2-byte index)
	OP_NIL                 // Push null
	OP_TRUE                // Push true
	OP_FALSE               // Push false
	OP_POP                 // Discard top of stack
	OP_POPN                // Discard top N items (1-byte count)
	OP_DUP                 // Duplicate top of stack
	OP_DUP2                // Duplicate top two items: [a, b] -> [a, b, a, b]

	// Arithmetic
	OP_ADD      // +
	OP_SUB      // -
	OP_MUL      // *
	OP_DIV      // /
	OP_FLOORDIV // //
	OP_MOD      // %
	OP_POW      // **
	OP_NEG      // Unary minus

	// In-place variants for compound assignment: mutate the receiver
	// when it is a set, fall back to the plain operator otherwise
	OP_ADD_IP  // +=
	OP_BAND_IP // &=

	// Set intersection
	OP_BAND // &

	// Comparison
	OP_EQ  // ==
	OP_NEQ // !=
	OP_LT  // <
	OP_LTE // <=
	OP_GT  // >
	OP_GTE // >=

	// Logic
	OP_NOT // not (unary)
	OP_XOR // xor
	OP_IN  // membership test

	// Variables
	OP_GET_LOCAL   // Get local by frame slot (2-byte index)
	OP_SET_LOCAL   // Set local by frame slot (2-byte index)
	OP_GET_UPVALUE // Get captured variable (1-byte index)
	OP_SET_UPVALUE // Set captured variable (1-byte index)
	OP_GET_BUILTIN // Push builtin function (1-byte registry index)

	// Control flow
	OP_JUMP            // Unconditional forward jump (2-byte offset)
	OP_JUMP_IF_FALSE   // Pop, jump if falsy (2-byte offset)
	OP_JUMP_IF_TRUTHY // Peek: jump keeping a truthy TOS, else pop

	OP_LOOP // Jump backward (2-byte offset)

	// Functions
	OP_CALL    // Call value (1-byte arg count)
	OP_RETURN  // Return from function
	OP_CLOSURE // Create closure (2-byte function const, then upvalue descriptors)

	// Data structures
	OP_MAKE_LIST  // Build list from top N values (2-byte count)
	OP_MAKE_TUPLE // Build tuple from top N values (2-byte count)
	OP_MAKE_MAP   // Build map from top N key/value pairs (2-byte count)
	OP_RANGE      // Build range (1-byte flags: bit0 inclusive, bit1 open-ended)
	OP_INDEX      // Subscript: [obj, key] -> [value]
	OP_SET_INDEX  // Subscript store: [obj, key, value] -> [value]
	OP_SPREAD     // Unpack sequence into N values (1-byte count, arity-checked)

	// Iteration
	OP_ITER      // Coerce TOS to an iterator, store in a frame slot (2-byte index)
	OP_ITER_NEXT // Advance iterator in slot; push element or jump (2-byte slot, 2-byte offset)

	// Method and regex dispatch
	OP_METHOD   // Call method on receiver (2-byte name const, 1-byte arg count)
	OP_FIND     // [str, regex] -> first match or null
	OP_FIND_ALL // [str, regex] -> list of matches
	OP_IS_MATCH // [str, regex] -> bool

	// Pattern matching
	OP_MATCH_FAIL // No match arm applied: raise pattern failure

	// Halt
	OP_HALT // Stop execution
)

// OpcodeNames maps opcodes to their string names (for the disassembler)
var OpcodeNames = map[Opcode]string{
	OP_CONST: "CONST",
	OP_NIL:   "NIL",
	OP_TRUE:  "TRUE",
	OP_FALSE: "FALSE",
	OP_POP:   "POP",
	OP_POPN:  "POPN",
	OP_DUP:   "DUP",
	OP_DUP2:  "DUP2",

	OP_ADD:      "ADD",
	OP_SUB:      "SUB",
	OP_MUL:      "MUL",
	OP_DIV:      "DIV",
	OP_FLOORDIV: "FLOORDIV",
	OP_MOD:      "MOD",
	OP_POW:      "POW",
	OP_NEG:      "NEG",

	OP_ADD_IP:  "ADD_IP",
	OP_BAND_IP: "BAND_IP",
	OP_BAND:    "BAND",

	OP_EQ:  "EQ",
	OP_NEQ: "NEQ",
	OP_LT:  "LT",
	OP_LTE: "LTE",
	OP_GT:  "GT",
	OP_GTE: "GTE",

	OP_NOT: "NOT",
	OP_XOR: "XOR",
	OP_IN:  "IN",

	OP_GET_LOCAL:   "GET_LOCAL",
	OP_SET_LOCAL:   "SET_LOCAL",
	OP_GET_UPVALUE: "GET_UPVALUE",
	OP_SET_UPVALUE: "SET_UPVALUE",
	OP_GET_BUILTIN: "GET_BUILTIN",

	OP_JUMP:            "JUMP",
	OP_JUMP_IF_FALSE:   "JUMP_IF_FALSE",
	OP_JUMP_IF_TRUTHY: "JUMP_IF_TRUTHY",
	OP_LOOP:            "LOOP",

	OP_CALL:    "CALL",
	OP_RETURN:  "RETURN",
	OP_CLOSURE: "CLOSURE",

	OP_MAKE_LIST:  "MAKE_LIST",
	OP_MAKE_TUPLE: "MAKE_TUPLE",
	OP_MAKE_MAP:   "MAKE_MAP",
	OP_RANGE:      "RANGE",
	OP_INDEX:      "INDEX",
	OP_SET_INDEX:  "SET_INDEX",
	OP_SPREAD:     "SPREAD",

	OP_ITER:      "ITER",
	OP_ITER_NEXT: "ITER_NEXT",

	OP_METHOD:   "METHOD",
	OP_FIND:     "FIND",
	OP_FIND_ALL: "FIND_ALL",
	OP_IS_MATCH: "IS_MATCH",

	OP_MATCH_FAIL: "MATCH_FAIL",

	OP_HALT: "HALT",
}

// Range flag bits for OP_RANGE
const (
	rangeInclusive = 1 << 0
	rangeOpenEnded = 1 << 1
)
