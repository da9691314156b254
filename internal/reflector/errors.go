package reflector

import (
	"fmt"
	"strings"
)

// ConstructionError means a type could not be instantiated: no constructor
// matched, or the chosen one failed or panicked.
type ConstructionError struct {
	Type string
	Err  error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("construct %s: %v", e.Type, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

// InvocationError means a method or function call failed.
type InvocationError struct {
	Target string
	Method string
	Err    error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("invoke %s.%s: %v", e.Target, e.Method, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// NoMatchError lists the candidates rejected for an argument list.
type NoMatchError struct {
	Args       []string
	Candidates []string
}

func (e *NoMatchError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("no candidate accepts (%s)", strings.Join(e.Args, ", "))
	}
	return fmt.Sprintf("no candidate accepts (%s), tried %s", strings.Join(e.Args, ", "), strings.Join(e.Candidates, "; "))
}

// PanicError is a recovered panic raised by reflected code.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
