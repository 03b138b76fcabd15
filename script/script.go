// Package script runs user Lua hooks that may rewrite stream URLs before
// they are loaded, e.g. to route them through a proxy or add a token.
//
// A hook is a .lua file in the scripts directory that defines
//
//	function ResolveStream(url, item)
//	  return url -- or nil to leave it unchanged
//	end
//
// where item is a table with id, title, subtitle, series_id and
// resume_seconds. Hooks may use the mangal-lua-libs modules and the
// reelix_http module.
package script

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	libs "github.com/metafates/mangal-lua-libs"
	"github.com/reelix-cli/reelix/constant"
	"github.com/reelix-cli/reelix/filesystem"
	"github.com/reelix-cli/reelix/log"
	"github.com/reelix-cli/reelix/queue"
	"github.com/reelix-cli/reelix/ticks"
	"github.com/reelix-cli/reelix/util"
	"github.com/spf13/afero"
	lua "github.com/yuin/gopher-lua"
)

// Extension is the file extension of hook scripts.
const Extension = ".lua"

// Hook is one loaded script. Calls are serialized: a Lua state is not safe
// for concurrent use.
type Hook struct {
	name string
	path string

	mu    sync.Mutex
	state *lua.LState
}

// Load runs the script at path and checks that it defines ResolveStream.
func Load(path string) (*Hook, error) {
	state := lua.NewState()
	libs.Preload(state)
	registerHTTP(state)

	if err := run(state, path); err != nil {
		state.Close()
		return nil, err
	}

	name := util.FileStem(path)
	if state.GetGlobal(constant.ResolveStreamFn).Type() != lua.LTFunction {
		state.Close()
		return nil, fmt.Errorf("function %s is required but not defined in %s", constant.ResolveStreamFn, name)
	}

	return &Hook{name: name, path: path, state: state}, nil
}

// Name returns the script file name without extension.
func (h *Hook) Name() string {
	return h.name
}

// Resolve calls ResolveStream. It reports false when the hook leaves the URL
// unchanged.
func (h *Hook) Resolve(ctx context.Context, item *queue.Item, streamURL string) (string, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.state.SetContext(ctx)
	defer h.state.RemoveContext()

	err := h.state.CallByParam(lua.P{
		Fn:      h.state.GetGlobal(constant.ResolveStreamFn),
		NRet:    1,
		Protect: true,
	}, lua.LString(streamURL), itemTable(h.state, item))
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", h.name, err)
	}

	ret := h.state.Get(-1)
	h.state.Pop(1)

	switch ret.Type() {
	case lua.LTNil:
		return streamURL, false, nil
	case lua.LTString:
		if ret.String() == "" {
			return streamURL, false, nil
		}
		return ret.String(), true, nil
	default:
		return "", false, fmt.Errorf("%s: %s returned %s, expected string", h.name, constant.ResolveStreamFn, ret.Type())
	}
}

// Close releases the Lua state.
func (h *Hook) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.Close()
}

func itemTable(L *lua.LState, item *queue.Item) *lua.LTable {
	table := L.NewTable()
	L.SetField(table, "id", lua.LString(item.ID))
	L.SetField(table, "title", lua.LString(item.Title))
	L.SetField(table, "subtitle", lua.LString(item.Subtitle))
	L.SetField(table, "series_id", lua.LString(item.SeriesID))
	L.SetField(table, "resume_seconds", lua.LNumber(ticks.ToSeconds(item.ResumeTicks)))
	return table
}

// Chain runs hooks in file name order, each one receiving the URL the
// previous one returned. It implements the stream loader's Rewriter.
type Chain struct {
	hooks []*Hook
}

// NewChain returns a chain over hooks.
func NewChain(hooks ...*Hook) *Chain {
	return &Chain{hooks: hooks}
}

// List returns the paths of the hook scripts in dir.
func List(dir string) ([]string, error) {
	paths, err := afero.Glob(filesystem.API(), filepath.Join(dir, "*"+Extension))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadDir loads every hook in dir. Scripts that fail to load are logged and
// skipped.
func LoadDir(dir string) (*Chain, error) {
	paths, err := List(dir)
	if err != nil {
		return nil, err
	}

	var hooks []*Hook
	for _, path := range paths {
		hook, err := Load(path)
		if err != nil {
			log.Warnf("script %s: %s", path, err)
			continue
		}
		hooks = append(hooks, hook)
	}

	return NewChain(hooks...), nil
}

// Len returns the number of hooks.
func (c *Chain) Len() int {
	return len(c.hooks)
}

// Rewrite passes streamURL through every hook. The first failing hook
// aborts the chain.
func (c *Chain) Rewrite(ctx context.Context, item *queue.Item, streamURL string) (string, error) {
	for _, hook := range c.hooks {
		rewritten, changed, err := hook.Resolve(ctx, item, streamURL)
		if err != nil {
			return "", err
		}
		if changed {
			log.Debugf("script %s rewrote the stream of %s", hook.Name(), item.ID)
			streamURL = rewritten
		}
	}
	return streamURL, nil
}

// Close closes every hook.
func (c *Chain) Close() {
	for _, hook := range c.hooks {
		hook.Close()
	}
}
