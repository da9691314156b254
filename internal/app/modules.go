package app

import (
	"github.com/vk/graft/internal/registry"
	"github.com/vk/graft/modules/env_vars"
	"github.com/vk/graft/modules/print"
	"github.com/vk/graft/modules/stdlib"
	"github.com/vk/graft/modules/widgets"
)

// coreModules is the definitive list of all modules that are compiled into
// the graft binary.
var coreModules = []registry.Module{
	&stdlib.Module{},
	&env_vars.Module{},
	&print.Module{},
	&widgets.Module{},
}
