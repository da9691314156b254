package depmgr

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"github.com/vk/graft/internal/classpath"
	"github.com/vk/graft/internal/ctxlog"
	"github.com/vk/graft/internal/repository"
)

// buildLibraries turns artifacts into classpath libraries. Compiled artifacts
// are used as is; source artifacts are interpreted by yaegi with the host
// libraries and every library built before them in scope, so a source
// artifact can import its dependencies.
func buildLibraries(ctx context.Context, host *classpath.Loader, artifacts []*repository.Artifact) ([]*classpath.Library, error) {
	logger := ctxlog.FromContext(ctx)

	var scope []interp.Exports
	for l := host; l != nil; l = l.Parent() {
		for _, lib := range l.Libraries() {
			scope = append(scope, lib.Symbols)
		}
	}

	libs := make([]*classpath.Library, 0, len(artifacts))
	for _, a := range artifacts {
		exports := a.Exports
		if len(a.Sources) > 0 {
			interpreted, err := interpretSources(ctx, a, scope)
			if err != nil {
				return nil, err
			}
			exports = mergeExports(exports, interpreted)
		}
		if len(exports) == 0 {
			logger.Warn("Artifact contributes no symbols.", "coordinate", a.Coordinate.String())
			continue
		}
		libs = append(libs, &classpath.Library{Name: a.Coordinate.String(), Symbols: exports})
		scope = append(scope, exports)
	}
	return libs, nil
}

// interpretSources evaluates the artifact's Go files and exports their
// exported package-level functions and variables under the artifact's module
// path. Types declared by interpreted code are not exported: yaegi does not
// expose them as regular reflect types.
func interpretSources(ctx context.Context, a *repository.Artifact, scope []interp.Exports) (interp.Exports, error) {
	logger := ctxlog.FromContext(ctx)
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("interpret %s: %w", a.Coordinate, err)
	}
	for _, exports := range scope {
		if err := i.Use(exports); err != nil {
			return nil, fmt.Errorf("interpret %s: %w", a.Coordinate, err)
		}
	}

	out := interp.Exports{}
	fset := token.NewFileSet()
	for _, src := range a.Sources {
		file, err := parser.ParseFile(fset, src, nil, parser.SkipObjectResolution)
		if err != nil {
			return nil, fmt.Errorf("interpret %s: parse %s: %w", a.Coordinate, src, err)
		}
		if _, err := i.EvalPath(src); err != nil {
			return nil, fmt.Errorf("interpret %s: eval %s: %w", a.Coordinate, src, err)
		}

		pkgName := file.Name.Name
		key := a.Coordinate.Path + "/" + pkgName
		syms, ok := out[key]
		if !ok {
			syms = make(map[string]reflect.Value)
			out[key] = syms
		}
		for _, name := range exportedNames(file) {
			v, err := i.Eval(pkgName + "." + name.ident)
			if err != nil {
				return nil, fmt.Errorf("interpret %s: resolve %s.%s: %w", a.Coordinate, pkgName, name.ident, err)
			}
			if name.variable {
				// Variables follow the export convention of being addressable.
				ptr := reflect.New(v.Type())
				ptr.Elem().Set(v)
				v = ptr.Elem()
			} else if v.CanInterface() {
				v = reflect.ValueOf(v.Interface())
			}
			syms[name.ident] = v
		}
		logger.Debug("Interpreted source file.", "coordinate", a.Coordinate.String(), "file", src, "package", pkgName)
	}
	return out, nil
}

type exportedName struct {
	ident    string
	variable bool
}

func exportedNames(file *ast.File) []exportedName {
	var out []exportedName
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil && d.Name.IsExported() {
				out = append(out, exportedName{ident: d.Name.Name})
			}
		case *ast.GenDecl:
			if d.Tok != token.VAR && d.Tok != token.CONST {
				continue
			}
			for _, spec := range d.Specs {
				vs, ok := spec.(*ast.ValueSpec)
				if !ok {
					continue
				}
				for _, n := range vs.Names {
					if n.IsExported() {
						out = append(out, exportedName{ident: n.Name, variable: d.Tok == token.VAR})
					}
				}
			}
		}
	}
	return out
}

func mergeExports(dst, src interp.Exports) interp.Exports {
	if dst == nil {
		return src
	}
	out := interp.Exports{}
	for k, syms := range dst {
		out[k] = syms
	}
	for k, syms := range src {
		merged := make(map[string]reflect.Value, len(out[k])+len(syms))
		for n, v := range out[k] {
			merged[n] = v
		}
		for n, v := range syms {
			merged[n] = v
		}
		out[k] = merged
	}
	return out
}
