package storyarc

import (
	"context"
	"fmt"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/jwebster45206/multiverse-fugitive/pkg/state"
)

const scriptTimeout = 250 * time.Millisecond

// safeLibrary represents a Lua library that is safe to load in sandboxed state.
type safeLibrary struct {
	name string
	fn   lua.LGFunction
}

// Safe: base, table, string, math.
// Blocked: os, io, debug, package.
var safeLibraries = []safeLibrary{
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
}

// Base functions that reach the filesystem or compile arbitrary code.
var unsafeBaseFunctions = []string{"dofile", "loadfile", "loadstring", "load", "require"}

// newSandbox creates a fresh Lua state with only safe libraries loaded.
func newSandbox() (*lua.LState, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range safeLibraries {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, fmt.Errorf("failed to open library %s: %w", lib.name, err)
		}
	}
	for _, fn := range unsafeBaseFunctions {
		L.SetGlobal(fn, lua.LNil)
	}
	return L, nil
}

// compileScript checks that src parses without running it.
func compileScript(src string) error {
	L, err := newSandbox()
	if err != nil {
		return err
	}
	defer L.Close()
	if _, err := L.LoadString(src); err != nil {
		return fmt.Errorf("syntax error: %w", err)
	}
	return nil
}

// scriptResult is what a script asked for beyond direct state changes.
type scriptResult struct {
	said  []string
	scene string
	exit  bool
}

// runScript executes src against ps. The script sees a `player` table and a
// handful of narrative globals; see registerAPI.
func (a *Arc) runScript(src string, ps *state.PlayerState) (scriptResult, error) {
	var res scriptResult

	L, err := newSandbox()
	if err != nil {
		return res, err
	}
	defer L.Close()

	ctx, cancel := context.WithTimeout(context.Background(), scriptTimeout)
	defer cancel()
	L.SetContext(ctx)

	a.registerAPI(L, ps, &res)

	if err := L.DoString(src); err != nil {
		return scriptResult{}, fmt.Errorf("script failed: %w", err)
	}
	return res, nil
}

func (a *Arc) registerAPI(L *lua.LState, ps *state.PlayerState, res *scriptResult) {
	player := L.NewTable()
	getter := func(fn func() int) lua.LGFunction {
		return func(L *lua.LState) int {
			L.Push(lua.LNumber(fn()))
			return 1
		}
	}
	adjuster := func(fn func(int)) lua.LGFunction {
		return func(L *lua.LState) int {
			fn(L.CheckInt(1))
			return 0
		}
	}
	named := func(fn func(string)) lua.LGFunction {
		return func(L *lua.LState) int {
			fn(L.CheckString(1))
			return 0
		}
	}
	check := func(fn func(string) bool) lua.LGFunction {
		return func(L *lua.LState) int {
			L.Push(lua.LBool(fn(L.CheckString(1))))
			return 1
		}
	}

	L.SetField(player, "morality", L.NewFunction(getter(ps.GetMorality)))
	L.SetField(player, "memory_sync", L.NewFunction(getter(ps.GetMemorySync)))
	L.SetField(player, "charges", L.NewFunction(getter(func() int { return ps.FractureKeyCharges })))
	L.SetField(player, "reputation", L.NewFunction(getter(func() int { return ps.ReputationIn(a.def.ID) })))
	L.SetField(player, "adjust_morality", L.NewFunction(adjuster(ps.AdjustMorality)))
	L.SetField(player, "adjust_memory_sync", L.NewFunction(adjuster(ps.AdjustMemorySync)))
	L.SetField(player, "adjust_reputation", L.NewFunction(adjuster(func(n int) { ps.AdjustReputation(a.def.ID, n) })))
	L.SetField(player, "add_item", L.NewFunction(named(ps.AddItem)))
	L.SetField(player, "remove_item", L.NewFunction(named(ps.RemoveItem)))
	L.SetField(player, "has_item", L.NewFunction(check(ps.HasItem)))
	L.SetField(player, "set_flag", L.NewFunction(named(ps.SetFlag)))
	L.SetField(player, "clear_flag", L.NewFunction(named(ps.ClearFlag)))
	L.SetField(player, "has_flag", L.NewFunction(check(ps.HasFlag)))
	L.SetGlobal("player", player)

	L.SetGlobal("say", L.NewFunction(func(L *lua.LState) int {
		res.said = append(res.said, strings.TrimSpace(L.CheckString(1)))
		return 0
	}))
	L.SetGlobal("go_to", L.NewFunction(func(L *lua.LState) int {
		scene := L.CheckString(1)
		if _, ok := a.def.Scenes[scene]; !ok {
			L.RaiseError("unknown scene %q", scene)
			return 0
		}
		res.scene = scene
		return 0
	}))
	L.SetGlobal("exit_universe", L.NewFunction(func(L *lua.LState) int {
		res.exit = true
		return 0
	}))
	L.SetGlobal("chance", L.NewFunction(func(L *lua.LState) int {
		pct := L.CheckInt(1)
		L.Push(lua.LBool(a.roller.IntN(100) < pct))
		return 1
	}))
	L.SetGlobal("pick", L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		if n == 0 {
			L.ArgError(1, "pick needs at least one option")
			return 0
		}
		L.Push(L.Get(a.roller.IntN(n) + 1))
		return 1
	}))
}
