package merkle

import "fmt"

// Kind identifies the class of fault a Merkle-layer Error reports.
type Kind int

const (
	// KindIndexOutOfRange indicates a leaf or node index outside the
	// tree's valid range.
	KindIndexOutOfRange Kind = iota
	// KindInvalidLength indicates a proof's path is too short (fewer than
	// 2 entries) or, during validation, two non-partial proofs disagree on
	// length.
	KindInvalidLength
	// KindInvalidHash indicates a leaf hash or path entry doesn't match
	// what the tree (or the other proof being validated against) holds.
	KindInvalidHash
	// KindInvalidIndex indicates two proofs being compared name different
	// leaves.
	KindInvalidIndex
	// KindPartialProof indicates a proof's partial flag is inconsistent
	// with the tree it's verified against, or with the proof it's
	// validated against.
	KindPartialProof
)

func (k Kind) String() string {
	switch k {
	case KindIndexOutOfRange:
		return "index out of range"
	case KindInvalidLength:
		return "invalid length"
	case KindInvalidHash:
		return "invalid hash"
	case KindInvalidIndex:
		return "invalid index"
	default:
		return "partial proof"
	}
}

// Error is the Merkle layer's single error type, matched by Kind.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

func newErr(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}
