package resolver

import (
	"runtime"
	"runtime/debug"

	"github.com/Sumatoshi-tech/modcache/pkg/identity"
	"github.com/Sumatoshi-tech/modcache/pkg/loader"
)

// StdModuleName is the builtin name of the Go runtime and standard library.
const StdModuleName = "std"

const selfModulePath = "github.com/Sumatoshi-tech/modcache"

// DefaultBuiltins returns the modules every process already has: the Go
// runtime, the host's main module, and this library. They are resolved
// without touching the index.
func DefaultBuiltins() map[string]*loader.Module {
	builtins := map[string]*loader.Module{
		StdModuleName: {
			Name:     StdModuleName,
			Identity: identity.Identity{Name: StdModuleName, Version: runtime.Version()}.Normalize(),
			Value:    runtime.Version(),
		},
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return builtins
	}

	addBuiltin(builtins, &info.Main)

	for _, dep := range info.Deps {
		if dep.Path == selfModulePath {
			addBuiltin(builtins, dep)
		}
	}

	return builtins
}

func addBuiltin(builtins map[string]*loader.Module, mod *debug.Module) {
	if mod == nil || mod.Path == "" {
		return
	}

	name := identity.ModuleName(mod.Path)
	if _, exists := builtins[name]; exists {
		return
	}

	builtins[name] = &loader.Module{
		Name:     name,
		Identity: identity.Identity{Name: name, Version: mod.Version, KeyToken: mod.Sum}.Normalize(),
		Value:    mod,
	}
}
