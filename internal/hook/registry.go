package hook

import (
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// Registry holds registered hooks and resolves which apply to a command.
type Registry struct {
	mu    sync.RWMutex
	hooks []Hook
}

// DefaultRegistry is the process-wide registry used by Wrap.
var DefaultRegistry = &Registry{}

// Register adds a hook to the registry.
func (r *Registry) Register(h Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, h)
}

// Unregister removes all hooks from the given source.
func (r *Registry) Unregister(source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = slices.DeleteFunc(r.hooks, func(h Hook) bool { return h.Source == source })
}

// Resolve returns the hooks for command at stage, ordered by name.
func (r *Registry) Resolve(command string, stage Stage) []Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []Hook
	for _, h := range r.hooks {
		if h.Stage == stage && matchPattern(h.Pattern, command) {
			matched = append(matched, h)
		}
	}
	slices.SortStableFunc(matched, func(a, b Hook) int { return strings.Compare(a.Name, b.Name) })
	return matched
}

// HasHooks reports whether any hook matches command.
func (r *Registry) HasHooks(command string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.ContainsFunc(r.hooks, func(h Hook) bool { return matchPattern(h.Pattern, command) })
}

// Count returns the number of registered hooks.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hooks)
}

// Register adds a hook to the default registry.
func Register(h Hook) {
	DefaultRegistry.Register(h)
}

// matchPattern matches dotted command names with shell globs, e.g.
// "config.*" matches any config subcommand. Commands never contain a path
// separator, so "*" matches everything.
func matchPattern(pattern, command string) bool {
	matched, _ := filepath.Match(pattern, command)
	return matched
}
