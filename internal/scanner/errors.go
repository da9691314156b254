package scanner

import (
	"fmt"
	"strings"
)

// ClassNotFoundError means no strategy located the name.
type ClassNotFoundError struct {
	Name  string
	Scope string
}

func (e *ClassNotFoundError) Error() string {
	if e.Scope == "" {
		return fmt.Sprintf("type %q not found", e.Name)
	}
	return fmt.Sprintf("type %q not found in %s scope", e.Name, e.Scope)
}

// AmbiguousClassError means a simple name matched several types. Candidates
// are sorted qualified names.
type AmbiguousClassError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguousClassError) Error() string {
	return fmt.Sprintf("type %q is ambiguous, candidates: %s", e.Name, strings.Join(e.Candidates, ", "))
}
