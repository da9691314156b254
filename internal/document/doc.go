// Package document is the HCL front-end. It parses a document file into the
// value model consumed by the resolver:
//
//	dependencies = ["example.com/widgets@v1.0.0"]
//	imports      = ["example.com/widgets.*"]
//	controller   = "example.com/widgets.Controller"
//
//	object "Window" {
//	  id    = "main"
//	  args  = ["hello", 640, 480]
//	  sizes = list(1, 2, 3)
//	  font  = chain(call("widgets::NewFont", "mono", 10), call("Bolded"))
//	  invoke { chain = call("Show") }
//	  object "Button" { text = "ok" }
//	}
//
// Expressions are decoded from the hclsyntax tree so that functions such as
// list, inject or call become value nodes instead of being evaluated.
package document
