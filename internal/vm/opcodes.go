// Package vm implements the bytecode compiler, the Program artifact and the
// stack virtual machine for mscript.
package vm

// Opcode represents a single VM instruction
type Opcode byte

const (
	// Stack manipulation
	OP_CONST Opcode = iota // Push constant from pool: idx16
	OP_TRUE                // Push true
	OP_FALSE               // Push false
	OP_ZERO                // Push the zero value of a type: typeIdx16
	OP_POP                 // Discard top of stack
	OP_DUP                 // Duplicate top of stack
	OP_COPY                // Replace top of stack with a deep copy

	// Variables
	OP_GET_LOCAL         // Push local: slot16
	OP_SET_LOCAL         // Pop into local: slot16
	OP_GET_GLOBAL        // Push global: idx16
	OP_SET_GLOBAL        // Pop into global: idx16
	OP_STORE_LOCAL_PATH  // Store into a nested element of a local: slot16 n8 step8...
	OP_STORE_GLOBAL_PATH // Store into a nested element of a global: idx16 n8 step8...

	// Aggregates
	OP_GET_FIELD  // [obj] -> [obj.fields[i]]: idx16
	OP_INIT_FIELD // [obj, v] -> [obj] with fields[i] = v: idx16
	OP_GET_INDEX  // [arr, i] -> [arr[i]]
	OP_MAKE_ARRAY // [e1..en] -> [array]: n16
	OP_LEN_ARRAY  // [arr] -> [len]
	OP_LEN_STRING // [str] -> [len]
	OP_APPEND     // [arr, v] -> [new array]

	// Integer arithmetic
	OP_ADD_INT
	OP_SUB_INT
	OP_MUL_INT
	OP_DIV_INT
	OP_MOD_INT
	OP_NEG_INT

	// Float arithmetic
	OP_ADD_FLOAT
	OP_SUB_FLOAT
	OP_MUL_FLOAT
	OP_DIV_FLOAT
	OP_NEG_FLOAT

	OP_CONCAT // string +

	// Comparison: cmp8 selects ==, !=, <, <=, >, >=
	OP_CMP_INT
	OP_CMP_FLOAT
	OP_CMP_STRING
	OP_CMP_BOOL    // == and != only
	OP_CMP_POINTER // == and != only

	OP_NOT

	// Conversions
	OP_INT_TO_FLOAT
	OP_FLOAT_TO_INT
	OP_BOOL_TO_INT

	// Control flow
	OP_JUMP          // Unconditional forward jump: off16
	OP_JUMP_IF_FALSE // Pop condition, jump forward if false: off16
	OP_JUMP_IF_TRUE  // Pop condition, jump forward if true: off16
	OP_LOOP          // Jump backward: off16

	// Functions
	OP_CALL        // Call script function: fnIdx16
	OP_CALL_NATIVE // Call host function: nativeIdx16
	OP_RETURN      // Return the value on top of stack
	OP_RETURN_VOID // Return without a value
	OP_TRAP        // Fault: control reached the end of a non-void function
)

// Comparison kinds, the operand of OP_CMP_*.
const (
	CMP_EQ byte = iota
	CMP_NE
	CMP_LT
	CMP_LE
	CMP_GT
	CMP_GE
)

// pathIndexStep marks a path step whose array index is taken from the stack.
const pathIndexStep byte = 0xFF

// OpcodeNames maps opcodes to their string names (for debugging)
var OpcodeNames = map[Opcode]string{
	OP_CONST: "CONST",
	OP_TRUE:  "TRUE",
	OP_FALSE: "FALSE",
	OP_ZERO:  "ZERO",
	OP_POP:   "POP",
	OP_DUP:   "DUP",
	OP_COPY:  "COPY",

	OP_GET_LOCAL:         "GET_LOCAL",
	OP_SET_LOCAL:         "SET_LOCAL",
	OP_GET_GLOBAL:        "GET_GLOBAL",
	OP_SET_GLOBAL:        "SET_GLOBAL",
	OP_STORE_LOCAL_PATH:  "STORE_LOCAL_PATH",
	OP_STORE_GLOBAL_PATH: "STORE_GLOBAL_PATH",

	OP_GET_FIELD:  "GET_FIELD",
	OP_INIT_FIELD: "INIT_FIELD",
	OP_GET_INDEX:  "GET_INDEX",
	OP_MAKE_ARRAY: "MAKE_ARRAY",
	OP_LEN_ARRAY:  "LEN_ARRAY",
	OP_LEN_STRING: "LEN_STRING",
	OP_APPEND:     "APPEND",

	OP_ADD_INT: "ADD_INT",
	OP_SUB_INT: "SUB_INT",
	OP_MUL_INT: "MUL_INT",
	OP_DIV_INT: "DIV_INT",
	OP_MOD_INT: "MOD_INT",
	OP_NEG_INT: "NEG_INT",

	OP_ADD_FLOAT: "ADD_FLOAT",
	OP_SUB_FLOAT: "SUB_FLOAT",
	OP_MUL_FLOAT: "MUL_FLOAT",
	OP_DIV_FLOAT: "DIV_FLOAT",
	OP_NEG_FLOAT: "NEG_FLOAT",

	OP_CONCAT: "CONCAT",

	OP_CMP_INT:     "CMP_INT",
	OP_CMP_FLOAT:   "CMP_FLOAT",
	OP_CMP_STRING:  "CMP_STRING",
	OP_CMP_BOOL:    "CMP_BOOL",
	OP_CMP_POINTER: "CMP_POINTER",

	OP_NOT: "NOT",

	OP_INT_TO_FLOAT: "INT_TO_FLOAT",
	OP_FLOAT_TO_INT: "FLOAT_TO_INT",
	OP_BOOL_TO_INT:  "BOOL_TO_INT",

	OP_JUMP:          "JUMP",
	OP_JUMP_IF_FALSE: "JUMP_IF_FALSE",
	OP_JUMP_IF_TRUE:  "JUMP_IF_TRUE",
	OP_LOOP:          "LOOP",

	OP_CALL:        "CALL",
	OP_CALL_NATIVE: "CALL_NATIVE",
	OP_RETURN:      "RETURN",
	OP_RETURN_VOID: "RETURN_VOID",
	OP_TRAP:        "TRAP",
}

var cmpNames = [...]string{"==", "!=", "<", "<=", ">", ">="}

func (op Opcode) String() string {
	if name, ok := OpcodeNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}
