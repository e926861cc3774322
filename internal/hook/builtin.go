package hook

import (
	"github.com/rnwolfe/habit/internal/logger"
)

// SourceBuiltin marks hooks registered by RegisterBuiltins.
const SourceBuiltin = "builtin"

// RegisterBuiltins installs the hooks every habit process runs: a notify
// hook that writes each successful command to the log, and a postexec hook
// that records streak milestones reported by `done`. Calling it again
// replaces the earlier builtins.
func RegisterBuiltins(reg *Registry) {
	reg.Unregister(SourceBuiltin)
	reg.Register(Hook{
		Pattern: "*",
		Stage:   StageNotify,
		Mode:    ModeNotify,
		Name:    "command-log",
		Source:  SourceBuiltin,
		Handler: func(ctx *Context) (*Context, error) {
			data, err := ctx.JSON()
			if err != nil {
				return nil, err
			}
			logger.Info("command", "name", ctx.Command, "context", string(data))
			return ctx, nil
		},
	})
	reg.Register(Hook{
		Pattern: "done",
		Stage:   StagePostexec,
		Mode:    ModeTransform,
		Name:    "milestone-log",
		Source:  SourceBuiltin,
		Handler: func(ctx *Context) (*Context, error) {
			if m, ok := ctx.Result.(Milestone); ok && m.Message != "" {
				logger.Info("milestone reached", "habit", m.Habit, "streak", m.Streak)
			}
			return nil, nil
		},
	})
}

// Milestone is the Result `done` reports when a completion lands on a
// milestone streak length.
type Milestone struct {
	Habit   string
	Streak  int
	Message string
}
