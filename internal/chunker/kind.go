package chunker

// Kind is the closed set of unit kinds the chunker emits. Languages map their
// own node types onto these values.
type Kind string

const (
	KindClass         Kind = "class"
	KindFunction      Kind = "function"
	KindMethod        Kind = "method"
	KindArrowFunction Kind = "arrow_function"
	KindSignature     Kind = "signature"
	KindInterface     Kind = "interface"
	KindType          Kind = "type"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindClass, KindFunction, KindMethod, KindArrowFunction, KindSignature,
		KindInterface, KindType:
		return true
	}
	return false
}

func (k Kind) String() string { return string(k) }
