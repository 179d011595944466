// Package logic provides host command handlers for the message security
// subsystem.
package logic

import (
	"errors"
	"sort"
	"sync"

	"github.com/andrei-cloud/go_paysec/internal/terminal"
)

// ErrUnknownCommand is returned for command codes with no registered handler.
var ErrUnknownCommand = errors.New("unknown command")

// Handler executes one command payload against a terminal key set.
type Handler func(keys *terminal.Keys, payload []byte) ([]byte, error)

// CommandInfo stores metadata about a host command.
type CommandInfo struct {
	CommandCode string
	Description string
	Handler     Handler
}

// Registry maps command codes to handlers.
type Registry struct {
	commands map[string]*CommandInfo
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]*CommandInfo),
	}
}

// NewDefaultRegistry returns a registry holding every built-in command.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&CommandInfo{CommandCode: "PB", Description: "Generate a PIN block", Handler: ExecutePB})
	r.Register(&CommandInfo{CommandCode: "MC", Description: "Generate a CBC MAC", Handler: ExecuteMC})
	r.Register(&CommandInfo{CommandCode: "ME", Description: "Generate an ECB fold MAC", Handler: ExecuteME})
	r.Register(&CommandInfo{CommandCode: "NC", Description: "Perform diagnostics", Handler: ExecuteNC})

	return r
}

// Register adds or replaces a command in the registry.
func (r *Registry) Register(info *CommandInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.commands[info.CommandCode] = info
}

// Get retrieves command metadata by command code.
func (r *Registry) Get(commandCode string) (*CommandInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.commands[commandCode]

	return info, ok
}

// List returns all registered commands ordered by code.
func (r *Registry) List() []*CommandInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*CommandInfo, 0, len(r.commands))
	for _, info := range r.commands {
		result = append(result, info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CommandCode < result[j].CommandCode })

	return result
}

// Execute runs the handler registered for commandCode.
func (r *Registry) Execute(commandCode string, keys *terminal.Keys, payload []byte) ([]byte, error) {
	info, ok := r.Get(commandCode)
	if !ok {
		return nil, ErrUnknownCommand
	}

	return info.Handler(keys, payload)
}
