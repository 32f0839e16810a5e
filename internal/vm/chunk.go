package vm

// Chunk represents a sequence of bytecode instructions
type Chunk struct {
	// Code is the bytecode instructions
	Code []byte

	// Constants pool - literals, compiled functions, regexes
	Constants []Value

	// Lines maps bytecode offset to source line number (for errors)
	Lines []int

	// Columns maps bytecode offset to source column number (for errors)
	Columns []int

	// File is the source file name
	File string
}

// NewChunk creates a new empty chunk
func NewChunk(file string) *Chunk {
	return &Chunk{
		Code:      make([]byte, 0, 256),
		Constants: make([]Value, 0, 64),
		Lines:     make([]int, 0, 256),
		Columns:   make([]int, 0, 256),
		File:      file,
	}
}

// Write adds a byte to the chunk with position info
func (c *Chunk) Write(b byte, line, col int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
	c.Columns = append(c.Columns, col)
}

// WriteOp writes an opcode to the chunk
func (c *Chunk) WriteOp(op Opcode, line, col int) {
	c.Write(byte(op), line, col)
}

// WriteU16 writes a 2-byte big-endian operand
func (c *Chunk) WriteU16(v int, line, col int) {
	c.Write(byte(v>>8), line, col)
	c.Write(byte(v), line, col)
}

// AddConstant interns a constant in the pool and returns its index.
// Scalar and string literals are deduplicated; object constants such as
// compiled functions always get a fresh slot.
func (c *Chunk) AddConstant(value Value) int {
	for i, existing := range c.Constants {
		if sameConstant(existing, value) {
			return i
		}
	}
	c.Constants = append(c.Constants, value)
	return len(c.Constants) - 1
}

func sameConstant(a, b Value) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case ValNil:
		return true
	case ValBool, ValInt, ValFloat:
		return a.Data == b.Data
	case ValObj:
		as, aok := a.Obj.(*ObjString)
		bs, bok := b.Obj.(*ObjString)
		return aok && bok && as.Value == bs.Value
	}
	return false
}

// ReadU16 reads a 2-byte big-endian operand at offset
func (c *Chunk) ReadU16(offset int) int {
	return int(c.Code[offset])<<8 | int(c.Code[offset+1])
}

// Len returns the number of bytes in the chunk
func (c *Chunk) Len() int {
	return len(c.Code)
}
