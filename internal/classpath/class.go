package classpath

import (
	"reflect"
)

// Class is a named Go type reachable through the classpath.
type Class struct {
	// Name is the qualified name, "import/path.Simple".
	Name    string
	Simple  string
	Package *Package
	Type    reflect.Type

	constructors []Symbol
}

// Constructors returns the package functions that build this type, in
// declaration (lexicographic) order.
func (c *Class) Constructors() []Symbol {
	return c.constructors
}

// Instantiable reports whether new(T) yields a usable value.
func (c *Class) Instantiable() bool {
	return c.Type.Kind() != reflect.Interface
}

func (c *Class) String() string {
	return c.Name
}

var builtinPackage = newPackage("", "builtin", "universe")

func init() {
	for name, t := range map[string]reflect.Type{
		"bool":       reflect.TypeOf(false),
		"string":     reflect.TypeOf(""),
		"int":        reflect.TypeOf(int(0)),
		"int8":       reflect.TypeOf(int8(0)),
		"int16":      reflect.TypeOf(int16(0)),
		"int32":      reflect.TypeOf(int32(0)),
		"rune":       reflect.TypeOf(rune(0)),
		"int64":      reflect.TypeOf(int64(0)),
		"uint":       reflect.TypeOf(uint(0)),
		"uint8":      reflect.TypeOf(uint8(0)),
		"byte":       reflect.TypeOf(byte(0)),
		"uint16":     reflect.TypeOf(uint16(0)),
		"uint32":     reflect.TypeOf(uint32(0)),
		"uint64":     reflect.TypeOf(uint64(0)),
		"uintptr":    reflect.TypeOf(uintptr(0)),
		"float32":    reflect.TypeOf(float32(0)),
		"float64":    reflect.TypeOf(float64(0)),
		"complex64":  reflect.TypeOf(complex64(0)),
		"complex128": reflect.TypeOf(complex128(0)),
		"any":        reflect.TypeOf((*any)(nil)).Elem(),
		"error":      reflect.TypeOf((*error)(nil)).Elem(),
	} {
		builtinPackage.classes[name] = &Class{Name: name, Simple: name, Package: builtinPackage, Type: t}
	}
}

// Builtin returns the predeclared Go type called name.
func Builtin(name string) (*Class, bool) {
	c, ok := builtinPackage.classes[name]
	return c, ok
}
