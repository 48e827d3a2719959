package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/l1jgo/frontier/internal/world"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// ErrGateNotCompiled is returned by Eval for a spawner with no compiled gate.
var ErrGateNotCompiled = errors.New("gate not compiled")

// GateEngine wraps a single gopher-lua VM that evaluates spawner gate
// predicates. A gate is a Lua boolean expression such as
//
//	has_flag("act1_done") and not has_flag("wolves_cleared")
//
// compiled once at spawner init and run on every population pass.
// Single-goroutine access only (game loop).
type GateEngine struct {
	vm     *lua.LState
	log    *zap.Logger
	gates  map[string]*lua.LFunction
	flags  world.FlagOracle // oracle for the Eval in progress
	failed map[string]bool  // spawners whose runtime error was already logged
}

// NewGateEngine creates the VM and loads helper scripts from scriptsDir/gate.
// A missing directory is not an error.
func NewGateEngine(scriptsDir string, log *zap.Logger) (*GateEngine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &GateEngine{
		vm:     vm,
		log:    log,
		gates:  make(map[string]*lua.LFunction),
		failed: make(map[string]bool),
	}
	vm.SetGlobal("has_flag", vm.NewFunction(e.luaHasFlag))

	if scriptsDir != "" {
		if err := e.loadDir(filepath.Join(scriptsDir, "gate")); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load gate scripts: %w", err)
		}
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *GateEngine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// luaHasFlag implements has_flag(name) for gate expressions.
func (e *GateEngine) luaHasFlag(L *lua.LState) int {
	name := L.CheckString(1)
	L.Push(lua.LBool(e.flags != nil && e.flags.HasFlag(name)))
	return 1
}

// Compile parses expr as the gate of spawnerID, replacing any earlier gate.
func (e *GateEngine) Compile(spawnerID, expr string) error {
	fn, err := e.vm.LoadString("return " + expr)
	if err != nil {
		return fmt.Errorf("compile gate for %s: %w", spawnerID, err)
	}
	e.gates[spawnerID] = fn
	delete(e.failed, spawnerID)
	return nil
}

// compiled reports whether spawnerID has a compiled gate.
func (e *GateEngine) compiled(spawnerID string) bool {
	_, ok := e.gates[spawnerID]
	return ok
}

// Eval runs the gate of spawnerID against flags. Runtime errors close the
// gate and are logged once per spawner.
func (e *GateEngine) Eval(spawnerID string, flags world.FlagOracle) (bool, error) {
	fn, ok := e.gates[spawnerID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrGateNotCompiled, spawnerID)
	}

	e.flags = flags
	defer func() { e.flags = nil }()

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}); err != nil {
		if !e.failed[spawnerID] {
			e.failed[spawnerID] = true
			e.log.Warn("gate script error", zap.String("spawner", spawnerID), zap.Error(err))
		}
		return false, nil
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)
	return lua.LVAsBool(result), nil
}

// Close releases the VM.
func (e *GateEngine) Close() {
	e.vm.Close()
}
