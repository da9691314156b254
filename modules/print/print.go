// Package print exposes a Printer class to documents. A document that imports
// "github.com/vk/graft/modules/print.*" can build one and dump values:
//
//	object "Printer" {
//	  prefix = "  "
//	  invoke { chain = call("Print", map("user", "root")) }
//	}
package print

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"

	"github.com/traefik/yaegi/interp"
	"github.com/vk/graft/internal/registry"
)

// Path is the import path documents use for this package.
const Path = "github.com/vk/graft/modules/print"

// DefaultPrefix indents printed lines under the summary of the document.
const DefaultPrefix = "      "

// Printer writes values as sorted key/value lines.
type Printer struct {
	prefix string
	out    io.Writer
}

// NewPrinter returns a printer writing to stdout.
func NewPrinter() *Printer {
	return NewPrinterTo(os.Stdout)
}

// NewPrinterTo returns a printer writing to w. It is not exported to
// documents.
func NewPrinterTo(w io.Writer) *Printer {
	return &Printer{prefix: DefaultPrefix, out: w}
}

func (p *Printer) Prefix() string     { return p.prefix }
func (p *Printer) SetPrefix(s string) { p.prefix = s }

// Print writes one line per entry, ordered by key, and returns the number of
// lines written. A nil map prints as (null).
func (p *Printer) Print(values map[string]string) int {
	if values == nil {
		fmt.Fprintf(p.out, "%s(null)\n", p.prefix)
		return 1
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(p.out, "%s%s = %q\n", p.prefix, k, values[k])
	}
	return len(keys)
}

// Println writes v on its own line.
func (p *Printer) Println(v any) {
	fmt.Fprintf(p.out, "%s%v\n", p.prefix, v)
}

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register adds the package to the host layer.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHostLibrary("print", interp.Exports{
		Path + "/print": {
			"Printer":       reflect.ValueOf((*Printer)(nil)),
			"DefaultPrefix": reflect.ValueOf(DefaultPrefix),
			"NewPrinter":    reflect.ValueOf(NewPrinter),
		},
	})
}
