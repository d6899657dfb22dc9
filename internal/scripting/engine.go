package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for NPC dialog scripting. Interactions
// arrive from multiple zone goroutines at a human rate, so one VM behind a
// mutex beats a VM per zone.
type Engine struct {
	mu  sync.Mutex
	vm  *lua.LState
	log *zap.Logger
}

// DialogResult is what an on_npc_interact script returns.
type DialogResult struct {
	DialogUnitID uint32 // 0 = no dialog window
	ChatTextID   uint32 // 0 = no NPC chat line
	NameTextID   uint32
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory tree.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	vm.SetGlobal("server_log", vm.NewFunction(func(L *lua.LState) int {
		log.Info("lua", zap.String("msg", L.CheckString(1)))
		return 0
	}))

	e := &Engine{vm: vm, log: log}
	for _, sub := range []string{"core", "dialog"} {
		if err := e.loadDir(filepath.Join(scriptsDir, sub)); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
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
		e.log.Debug("載入 Lua 腳本", zap.String("file", path))
	}
	return nil
}

// OnNpcInteract runs the global on_npc_interact(template_id, event) hook.
// Returns nil when no script claims the interaction.
func (e *Engine) OnNpcInteract(templateID uint32, event uint8) (*DialogResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn := e.vm.GetGlobal("on_npc_interact")
	if fn == lua.LNil {
		return nil, nil
	}
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true},
		lua.LNumber(templateID), lua.LNumber(event)); err != nil {
		return nil, fmt.Errorf("on_npc_interact: %w", err)
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)

	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return nil, nil
	}
	res := &DialogResult{
		DialogUnitID: uint32(lua.LVAsNumber(tbl.RawGetString("dialog_id"))),
		ChatTextID:   uint32(lua.LVAsNumber(tbl.RawGetString("chat_text_id"))),
		NameTextID:   uint32(lua.LVAsNumber(tbl.RawGetString("name_text_id"))),
	}
	return res, nil
}

// Close shuts the VM down.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vm.Close()
}
