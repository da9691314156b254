package document

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/graft/internal/coord"
	"github.com/vk/graft/internal/ctxlog"
	"github.com/vk/graft/internal/value"
)

// Block and attribute names of the document grammar.
const (
	ObjectBlock = "object"
	InvokeBlock = "invoke"

	attrDependencies = "dependencies"
	attrImports      = "imports"
	attrController   = "controller"

	attrID      = "id"
	attrArgs    = "args"
	attrBuilder = "builder"
	attrChain   = "chain"
)

// Document is a parsed document.
type Document struct {
	// Filename is the name the source was parsed under.
	Filename string
	// Location is the document's URL, the base for resource values. It is
	// empty for documents parsed from memory.
	Location     string
	Dependencies []coord.Coordinate
	Imports      []string
	// Controller optionally names the controller type.
	Controller string
	Root       *value.ObjectNode
}

// Load parses the document file at path.
func Load(ctx context.Context, path string) (*Document, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading document.", "path", path)
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve document path '%s': %w", path, err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(abs)
	if diags.HasErrors() {
		return nil, diags
	}
	doc, err := decodeFile(file, path)
	if err != nil {
		return nil, err
	}
	doc.Location = (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
	logger.Debug("Successfully decoded document.", "path", path, "nodes", doc.Len())
	return doc, nil
}

// Parse parses src as a document named filename.
func Parse(src []byte, filename string) (*Document, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diags
	}
	return decodeFile(file, filename)
}

// Len returns the number of object nodes in the document.
func (d *Document) Len() int {
	n := 0
	if d.Root != nil {
		value.Walk(d.Root, func(*value.ObjectNode) { n++ })
	}
	return n
}

func decodeFile(file *hcl.File, filename string) (*Document, error) {
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("%s: not a native HCL document", filename)
	}
	d := &decoder{}
	doc := &Document{Filename: filename}

	for name, attr := range body.Attributes {
		switch name {
		case attrDependencies:
			raw := d.strings(attr)
			deps, err := coord.ParseAll(raw)
			if err != nil {
				d.errorf(attr.Expr.Range(), "Invalid dependency", "%v", err)
				continue
			}
			doc.Dependencies = deps
		case attrImports:
			doc.Imports = d.strings(attr)
		case attrController:
			doc.Controller = d.string(attr.Expr)
		default:
			d.errorf(attr.NameRange, "Unsupported argument", "An argument named %q is not expected here.", name)
		}
	}

	for _, b := range body.Blocks {
		if b.Type != ObjectBlock {
			d.errorf(b.TypeRange, "Unsupported block type", "Blocks of type %q are not expected here.", b.Type)
		}
	}
	root, diags := findUniqueBlock(body.Blocks, ObjectBlock)
	d.diags = append(d.diags, diags...)
	if root == nil {
		d.errorf(body.SrcRange, "Missing object block", "A document needs exactly one top-level %q block.", ObjectBlock)
	} else {
		doc.Root = d.object(root)
	}

	if d.diags.HasErrors() {
		return nil, d.diags
	}
	return doc, nil
}
