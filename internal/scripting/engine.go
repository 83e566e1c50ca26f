package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM running a bot script.
// Single-goroutine access only (tick loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads path, either one .lua file or a
// directory whose .lua files are loaded in name order.
func NewEngine(path string, log *zap.Logger) (*Engine, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("load bot script: %w", err)
	}
	e := newEngine(log)
	if info.IsDir() {
		err = e.loadDir(path)
	} else {
		err = e.loadFile(path)
	}
	if err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// NewEngineString creates a Lua engine from script source.
func NewEngineString(src string, log *zap.Logger) (*Engine, error) {
	e := newEngine(log)
	if err := e.vm.DoString(src); err != nil {
		e.Close()
		return nil, fmt.Errorf("load bot script: %w", err)
	}
	return e, nil
}

func newEngine(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	return &Engine{vm: vm, log: log}
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		if err := e.loadFile(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) loadFile(path string) error {
	if err := e.vm.DoFile(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	e.log.Debug("loaded lua script", zap.String("file", path))
	return nil
}

// ChooseGroup calls Lua choose_group(). It reports false when the script
// defines no such function or returns something other than a group number.
func (e *Engine) ChooseGroup() (uint8, bool) {
	fn := e.vm.GetGlobal("choose_group")
	if fn == lua.LNil {
		return 0, false
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}); err != nil {
		e.log.Error("lua choose_group error", zap.Error(err))
		return 0, false
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	n, ok := result.(lua.LNumber)
	if !ok || n < 1 || n > 255 || n != lua.LNumber(int(n)) {
		e.log.Error("lua choose_group returned invalid group", zap.String("value", result.String()))
		return 0, false
	}
	return uint8(n), true
}

// UnitView is one unit as the script sees it.
type UnitView struct {
	ID      uint32
	Kind    string
	Group   uint8
	X, Y, Z float32
	Target  uint32
}

// View is the match state handed to plan(view). Units holds living units
// only, in ascending ID order.
type View struct {
	Group   uint8
	Map     string
	Speed   float32
	Units   []UnitView
	Weights map[string]uint16
}

// Intent is a single action returned by Lua plan.
type Intent struct {
	Type     string // "move", "attack", "weight"
	Units    []uint32
	X, Z     float32
	Attacker uint32
	Target   uint32
	Kind     string
	Weight   uint16
}

// Plan calls Lua plan(view) and returns the intents it lists.
func (e *Engine) Plan(v View) []Intent {
	fn := e.vm.GetGlobal("plan")
	if fn == lua.LNil {
		return nil
	}

	t := e.vm.NewTable()
	t.RawSetString("group", lua.LNumber(v.Group))
	t.RawSetString("map", lua.LString(v.Map))
	t.RawSetString("speed", lua.LNumber(v.Speed))

	units := e.vm.NewTable()
	for i, u := range v.Units {
		row := e.vm.NewTable()
		row.RawSetString("id", lua.LNumber(u.ID))
		row.RawSetString("kind", lua.LString(u.Kind))
		row.RawSetString("group", lua.LNumber(u.Group))
		row.RawSetString("x", lua.LNumber(u.X))
		row.RawSetString("y", lua.LNumber(u.Y))
		row.RawSetString("z", lua.LNumber(u.Z))
		row.RawSetString("target", lua.LNumber(u.Target))
		if u.Group == v.Group {
			row.RawSetString("own", lua.LTrue)
		} else {
			row.RawSetString("own", lua.LFalse)
		}
		units.RawSetInt(i+1, row)
	}
	t.RawSetString("units", units)

	weights := e.vm.NewTable()
	for name, w := range v.Weights {
		weights.RawSetString(name, lua.LNumber(w))
	}
	t.RawSetString("weights", weights)

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua plan error", zap.Error(err))
		return nil
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		return nil
	}

	var intents []Intent
	rt.ForEach(func(_, v lua.LValue) {
		row, ok := v.(*lua.LTable)
		if !ok {
			return
		}
		intents = append(intents, Intent{
			Type:     lStr(row, "type"),
			Units:    lIDs(row, "units"),
			X:        lFloat(row, "x"),
			Z:        lFloat(row, "z"),
			Attacker: uint32(lInt(row, "attacker")),
			Target:   uint32(lInt(row, "target")),
			Kind:     lStr(row, "kind"),
			Weight:   uint16(lInt(row, "weight")),
		})
	})
	return intents
}

// lInt reads an integer field from a Lua table. Missing, negative or
// non-numeric fields read as 0.
func lInt(t *lua.LTable, key string) int {
	n, ok := t.RawGetString(key).(lua.LNumber)
	if !ok || n < 0 {
		return 0
	}
	return int(n)
}

func lFloat(t *lua.LTable, key string) float32 {
	return float32(lua.LVAsNumber(t.RawGetString(key)))
}

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}

// lIDs reads an array of unit IDs from a Lua table.
func lIDs(t *lua.LTable, key string) []uint32 {
	arr, ok := t.RawGetString(key).(*lua.LTable)
	if !ok {
		return nil
	}
	ids := make([]uint32, 0, arr.Len())
	for i := 1; i <= arr.Len(); i++ {
		if n, ok := arr.RawGetInt(i).(lua.LNumber); ok && n > 0 {
			ids = append(ids, uint32(n))
		}
	}
	return ids
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
