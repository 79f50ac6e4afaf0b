package router

import "fmt"

// Kind identifies the class of fault a router-layer Error reports.
type Kind int

const (
	// KindAlreadyExists indicates Create or Load named a storage map that
	// already has a running worker.
	KindAlreadyExists Kind = iota
	// KindDoesNotExist indicates a message targeted a name with no
	// running worker.
	KindDoesNotExist
	// KindDelivery indicates a message could not be delivered to or
	// answered by a worker before its context was done — the mailbox
	// analogue of a dropped message, distinct from the worker reporting
	// a domain-level error back through a normal reply.
	KindDelivery
)

func (k Kind) String() string {
	switch k {
	case KindAlreadyExists:
		return "storage map already exists"
	case KindDoesNotExist:
		return "storage map does not exist"
	default:
		return "message delivery failed"
	}
}

// Error is the router layer's error type, matched by Kind.
type Error struct {
	Kind Kind
	Name string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Name)
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

func newErr(kind Kind, name string) *Error {
	return &Error{Kind: kind, Name: name}
}
