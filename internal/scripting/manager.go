package scripting

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// Bindings connect the engine.* Lua module to one hook call of a running
// battle. Units are addressed by id; damage and healing are attributed to the
// unit whose hook is running. Any nil field makes the matching Lua function a
// no-op returning nil or zero.
type Bindings struct {
	HP          func(id string) (hp, maxHP int, ok bool)
	Damage      func(targetID string, amount int, label string) int
	Heal        func(targetID string, amount int, label string) int
	Log         func(actorID, message string)
	ApplyStatus func(targetID, status string, ticks int) bool
	Enemies     func(id string) []string
	Allies      func(id string) []string
	Distance    func(a, b string) (float64, bool)
	Tick        func() int
	// Source backs engine.random and math.random so scripts stay reproducible.
	Source dice.Source
}

// Manager owns one sandboxed LState holding every loaded skill script and
// dispatches hook calls into it.
//
// Manager is safe for concurrent CallHook; calls are serialized because an
// LState is single-threaded.
type Manager struct {
	mu      sync.Mutex
	state   *lua.LState
	limit   int
	current *Bindings
	logger  *zap.Logger
}

// NewManager creates a Manager with no scripts loaded.
//
// Precondition: logger must be non-nil.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{logger: logger}
}

// Load executes every *.lua file in scriptDir, in lexicographic order, in a
// fresh VM that replaces any previously loaded one.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: returns error on read or Lua load failure; the previous VM is kept then.
func (m *Manager) Load(scriptDir string, instLimit int) error {
	return m.LoadFS(os.DirFS(scriptDir), ".", instLimit)
}

// LoadFS is Load over an fs.FS, used for embedded scripts.
func (m *Manager) LoadFS(fsys fs.FS, dir string, instLimit int) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && path.Ext(e.Name()) == ".lua" {
			files = append(files, path.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	L := NewSandboxedState()
	m.RegisterModules(L)
	for _, name := range files {
		src, err := fs.ReadFile(fsys, name)
		if err != nil {
			L.Close()
			return fmt.Errorf("scripting: reading %q: %w", name, err)
		}
		release := Limit(L, instLimit)
		err = L.DoString(string(src))
		release()
		if err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", name, err)
		}
	}

	m.mu.Lock()
	if m.state != nil {
		m.state.Close()
	}
	m.state = L
	m.limit = instLimit
	m.mu.Unlock()
	m.logger.Debug("scripts loaded", zap.Int("files", len(files)))
	return nil
}

// HasHook reports whether a global function named hook is defined.
func (m *Manager) HasHook(hook string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return false
	}
	_, ok := m.state.GetGlobal(hook).(*lua.LFunction)
	return ok
}

// CallHook calls the named Lua global function with b bound to the engine
// module for the duration of the call. Returns (LNil, nil) if no scripts are
// loaded or the hook is not defined. Lua runtime errors, including an
// exhausted instruction budget, are logged at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(b *Bindings, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return lua.LNil, nil
	}
	L := m.state
	fn, ok := L.GetGlobal(hook).(*lua.LFunction)
	if !ok {
		return lua.LNil, nil
	}

	m.current = b
	defer func() { m.current = nil }()
	release := Limit(L, m.limit)
	defer release()

	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", hook),
			zap.Error(err),
		)
		L.SetTop(0)
		return lua.LNil, nil
	}
	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// Close releases the VM. Later calls to CallHook return LNil.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != nil {
		m.state.Close()
		m.state = nil
	}
}
