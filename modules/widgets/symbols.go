package widgets

import (
	"reflect"

	"github.com/traefik/yaegi/interp"
)

// Path is the import path documents use for this package.
const Path = "github.com/vk/graft/modules/widgets"

// Symbols exports the package in the yaegi symbol table format.
var Symbols = interp.Exports{
	Path + "/widgets": {
		// types
		"Alignment":     reflect.ValueOf((*Alignment)(nil)),
		"Button":        reflect.ValueOf((*Button)(nil)),
		"ChildList":     reflect.ValueOf((*ChildList)(nil)),
		"Controller":    reflect.ValueOf((*Controller)(nil)),
		"Font":          reflect.ValueOf((*Font)(nil)),
		"Label":         reflect.ValueOf((*Label)(nil)),
		"Panel":         reflect.ValueOf((*Panel)(nil)),
		"Widget":        reflect.ValueOf((*Widget)(nil)),
		"Window":        reflect.ValueOf((*Window)(nil)),
		"WindowBuilder": reflect.ValueOf((*WindowBuilder)(nil)),

		// constants
		"AlignCenter": reflect.ValueOf(AlignCenter),
		"AlignLeft":   reflect.ValueOf(AlignLeft),
		"AlignRight":  reflect.ValueOf(AlignRight),

		// variables
		"DefaultFont": reflect.ValueOf(&DefaultFont).Elem(),

		// functions
		"Explode":          reflect.ValueOf(Explode),
		"Join":             reflect.ValueOf(Join),
		"NewButton":        reflect.ValueOf(NewButton),
		"NewController":    reflect.ValueOf(NewController),
		"NewFont":          reflect.ValueOf(NewFont),
		"NewLabel":         reflect.ValueOf(NewLabel),
		"NewLabelOf":       reflect.ValueOf(NewLabelOf),
		"NewLabelRepeated": reflect.ValueOf(NewLabelRepeated),
		"NewWindow":        reflect.ValueOf(NewWindow),
		"NewWindowBuilder": reflect.ValueOf(NewWindowBuilder),
		"NewWindowSized":   reflect.ValueOf(NewWindowSized),
		"Sum":              reflect.ValueOf(Sum),
	},
}
