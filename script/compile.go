package script

import (
	"bytes"
	"sync"

	"github.com/reelix-cli/reelix/filesystem"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

var bytecode sync.Map

// run executes the script at path in L. Compiled prototypes are cached by
// path for the lifetime of the process.
func run(L *lua.LState, path string) error {
	proto, err := compile(path)
	if err != nil {
		return err
	}

	L.Push(L.NewFunctionFromProto(proto))
	return L.PCall(0, lua.MultRet, nil)
}

func compile(path string) (*lua.FunctionProto, error) {
	if cached, ok := bytecode.Load(path); ok {
		return cached.(*lua.FunctionProto), nil
	}

	contents, err := filesystem.API().ReadFile(path)
	if err != nil {
		return nil, err
	}

	chunk, err := parse.Parse(bytes.NewReader(contents), path)
	if err != nil {
		return nil, err
	}

	proto, err := lua.Compile(chunk, path)
	if err != nil {
		return nil, err
	}

	bytecode.Store(path, proto)
	return proto, nil
}

// forget drops the cached prototype of path, so an updated script is
// compiled again.
func forget(path string) {
	bytecode.Delete(path)
}
