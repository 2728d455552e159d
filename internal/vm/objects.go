package vm

// Aggregate holds the fields of an object (in member order) or the
// elements of an array. An object always has exactly as many elements as
// its struct has members.
type Aggregate struct {
	Elems []Value
}
