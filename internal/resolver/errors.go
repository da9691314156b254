package resolver

import "fmt"

// ChainBrokenError means a link of a method chain failed or yielded nothing
// while further links remained.
type ChainBrokenError struct {
	Chain  string
	Link   int
	Method string
	Err    error
}

func (e *ChainBrokenError) Error() string {
	return fmt.Sprintf("method chain %s broken at link %d (%s): %v", e.Chain, e.Link, e.Method, e.Err)
}

func (e *ChainBrokenError) Unwrap() error { return e.Err }

// AttachError means the attach callback rejected a node's children.
type AttachError struct {
	Parent string
	Err    error
}

func (e *AttachError) Error() string {
	return fmt.Sprintf("attach children of %s: %v", e.Parent, e.Err)
}

func (e *AttachError) Unwrap() error { return e.Err }
