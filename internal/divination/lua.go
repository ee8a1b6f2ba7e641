package divination

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Shopify/go-lua"
)

const luaInterpretFunction = "interpret"

// LuaEngine runs a Lua script that defines a global interpret(character)
// function returning interpretation text.
//
// A lua.State is not safe for concurrent use, so calls are serialized.
type LuaEngine struct {
	mu    sync.Mutex
	state *lua.State
}

// NewLuaEngine loads the script at path and verifies it defines interpret.
func NewLuaEngine(path string) (*LuaEngine, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("script path is required")
	}

	state := lua.NewState()
	lua.OpenLibraries(state)

	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua script: %w", err)
	}
	if err := state.ProtectedCall(0, 0, 0); err != nil {
		return nil, fmt.Errorf("run lua script: %w", err)
	}

	state.Global(luaInterpretFunction)
	isFunction := state.IsFunction(-1)
	state.Pop(1)
	if !isFunction {
		return nil, fmt.Errorf("lua script must define a global %q function", luaInterpretFunction)
	}

	return &LuaEngine{state: state}, nil
}

// Interpret invokes the script's interpret function for one character.
func (e *LuaEngine) Interpret(character string) (string, error) {
	if e == nil || e.state == nil {
		return "", fmt.Errorf("lua engine is not configured")
	}
	character = strings.TrimSpace(character)
	if character == "" {
		return "", fmt.Errorf("character is required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.Global(luaInterpretFunction)
	e.state.PushString(character)
	if err := e.state.ProtectedCall(1, 1, 0); err != nil {
		return "", fmt.Errorf("call %s: %w", luaInterpretFunction, err)
	}

	result, ok := e.state.ToString(-1)
	e.state.Pop(1)
	if !ok || strings.TrimSpace(result) == "" {
		return "", fmt.Errorf("%s must return interpretation text", luaInterpretFunction)
	}
	return result, nil
}

var _ Engine = (*LuaEngine)(nil)
