package constant

// Platform identifiers for runtime.GOOS comparisons.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
	Android = "android"
)

// Script hook function names looked up in user Lua scripts.
const (
	ResolveStreamFn = "ResolveStream"
)
