// Package hook runs every habit command through an in-process pipeline.
//
// Commands traverse four stages: prevalidate → preexec → postexec → notify.
// Transform hooks run in order and may replace the Context; notify hooks
// run concurrently after the command succeeds and cannot change anything.
package hook

import (
	"encoding/json"
	"fmt"
	"time"
)

// Stage identifies when a hook runs in the pipeline.
type Stage string

const (
	StagePrevalidate Stage = "prevalidate"
	StagePreexec     Stage = "preexec"
	StagePostexec    Stage = "postexec"
	StageNotify      Stage = "notify"
)

// AllStages is the execution order for the pipeline.
var AllStages = []Stage{StagePrevalidate, StagePreexec, StagePostexec, StageNotify}

// Mode determines how a hook interacts with the pipeline.
type Mode string

const (
	ModeTransform Mode = "transform"
	ModeNotify    Mode = "notify"
)

// Context carries one command invocation through the pipeline.
type Context struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Flags   map[string]string `json:"flags"`
	// Result is whatever the command reported via SetResult.
	Result  any           `json:"result,omitempty"`
	Started time.Time     `json:"started"`
	Elapsed time.Duration `json:"elapsed,omitempty"`
}

// NewContext creates a Context for the given command invocation.
func NewContext(command string, args []string, flags map[string]string) *Context {
	if args == nil {
		args = []string{}
	}
	if flags == nil {
		flags = map[string]string{}
	}
	return &Context{
		Command: command,
		Args:    args,
		Flags:   flags,
		Started: time.Now().UTC(),
	}
}

// JSON serializes the context for the command log.
func (c *Context) JSON() ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding hook context: %w", err)
	}
	return data, nil
}

// Hook is one registration.
type Hook struct {
	// Pattern matches command names, e.g. "done", "config.*", "*".
	Pattern string
	Stage   Stage
	Mode    Mode
	Name    string
	// Source groups hooks for Unregister, e.g. "builtin".
	Source  string
	Handler Handler
}

// Handler executes a hook. Transform handlers may return a replacement
// Context; a nil return keeps the current one.
type Handler func(ctx *Context) (*Context, error)
