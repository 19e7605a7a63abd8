package process

import (
	"context"
	"sync"
)

// FakeRunner records commands instead of running them. Tests install Hooks to
// emulate side effects (creating a checkout, producing a binary) or failures.
type FakeRunner struct {
	mu       sync.Mutex
	Commands []Command
	// Hook, when set, is called for every command; its error is returned from Run.
	Hook func(cmd Command) error
}

// Run records cmd and invokes the hook.
func (f *FakeRunner) Run(_ context.Context, cmd Command) error {
	f.mu.Lock()
	f.Commands = append(f.Commands, cmd)
	hook := f.Hook
	f.mu.Unlock()
	if hook != nil {
		return hook(cmd)
	}
	return nil
}

// Lines returns every recorded command rendered with Command.String.
func (f *FakeRunner) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.Commands))
	for i, c := range f.Commands {
		out[i] = c.String()
	}
	return out
}
