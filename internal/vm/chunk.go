package vm

// Chunk represents the bytecode of one function
type Chunk struct {
	// Code is the bytecode instructions
	Code []byte `cbor:"1,keyasint"`

	// Lines maps bytecode offset to source line number (for errors)
	Lines []int `cbor:"2,keyasint"`

	// Columns maps bytecode offset to source column number (for errors)
	Columns []int `cbor:"3,keyasint"`
}

// NewChunk creates a new empty chunk
func NewChunk() *Chunk {
	return &Chunk{
		Code:    make([]byte, 0, 256),
		Lines:   make([]int, 0, 256),
		Columns: make([]int, 0, 256),
	}
}

// Write adds a byte to the chunk with line and column info
func (c *Chunk) Write(b byte, line, col int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
	c.Columns = append(c.Columns, col)
}

// WriteOp writes an opcode to the chunk
func (c *Chunk) WriteOp(op Opcode, line, col int) {
	c.Write(byte(op), line, col)
}

// WriteU16 writes a big-endian 2-byte operand
func (c *Chunk) WriteU16(v int, line, col int) {
	c.Write(byte(v>>8), line, col)
	c.Write(byte(v), line, col)
}

// ReadU16 reads a 2-byte operand at offset
func (c *Chunk) ReadU16(offset int) int {
	return int(c.Code[offset])<<8 | int(c.Code[offset+1])
}

// Len returns the number of bytes in the chunk
func (c *Chunk) Len() int {
	return len(c.Code)
}
