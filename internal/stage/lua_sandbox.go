package stage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
)

const (
	luaTimeout         = time.Second
	luaRegistryMaxSize = 1024
)

var errLuaTimeout = errors.New("sandbox timeout")

// newSandboxLuaState opens only the side-effect free standard libraries.
func newSandboxLuaState() *lua.LState {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:     true,
		RegistrySize:     256,
		RegistryMaxSize:  luaRegistryMaxSize,
		RegistryGrowStep: 0,
	})
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.StringLibName, lua.OpenString},
		{lua.TabLibName, lua.OpenTable},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	// base exposes file loaders.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

// wrapExpression lets callers write a bare expression instead of a chunk.
func wrapExpression(code string) string {
	if strings.Contains(code, "return") {
		return code
	}
	return "return (" + code + ")"
}

// runLuaPredicate evaluates code with globals bound and returns its boolean
// result. Non-boolean results count as false.
func runLuaPredicate(ctx context.Context, code string, globals map[string]any) (bool, error) {
	L := newSandboxLuaState()
	defer L.Close()

	ctx, cancel := context.WithTimeout(ctx, luaTimeout)
	defer cancel()
	L.SetContext(ctx)

	for k, v := range globals {
		L.SetGlobal(k, toLValue(L, v))
	}
	fn, err := L.LoadString(wrapExpression(code))
	if err != nil {
		return false, err
	}
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		if ctx.Err() != nil {
			return false, errLuaTimeout
		}
		return false, err
	}
	ret := L.Get(-1)
	L.Pop(1)
	b, ok := ret.(lua.LBool)
	if !ok {
		return false, fmt.Errorf("predicate returned %s, expected boolean", ret.Type())
	}
	return bool(b), nil
}

// toLValue converts a Go value to a Lua value.
func toLValue(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case string:
		return lua.LString(x)
	case bool:
		return lua.LBool(x)
	case int:
		return lua.LNumber(float64(x))
	case int64:
		return lua.LNumber(float64(x))
	case float64:
		return lua.LNumber(x)
	case map[string]any:
		tbl := L.NewTable()
		for k, v2 := range x {
			tbl.RawSetString(k, toLValue(L, v2))
		}
		return tbl
	case []any:
		tbl := L.NewTable()
		for i, v2 := range x {
			tbl.RawSetInt(i+1, toLValue(L, v2))
		}
		return tbl
	default:
		return lua.LNil
	}
}
