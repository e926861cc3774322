package hook

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rnwolfe/habit/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type ctxKey struct{}

// Wrap wraps a Cobra RunE function with the hook pipeline.
//
//	var doneCmd = &cobra.Command{RunE: hook.Wrap("done", runDone)}
func Wrap(command string, fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return WrapWith(DefaultRegistry, command, fn)
}

// WrapWith wraps a Cobra RunE function using a specific registry.
func WrapWith(reg *Registry, command string, fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if !reg.HasHooks(command) {
			return fn(cmd, args)
		}

		hctx := NewContext(command, args, extractFlags(cmd))

		var err error
		for _, stage := range AllStages {
			switch stage {
			case StagePostexec:
				// The command itself runs between preexec and postexec.
				parent := cmd.Context()
				if parent == nil {
					parent = context.Background()
				}
				cmd.SetContext(context.WithValue(parent, ctxKey{}, hctx))
				if err := fn(cmd, hctx.Args); err != nil {
					return err
				}
				hctx.Elapsed = time.Since(hctx.Started)
			case StageNotify:
				runNotifyStage(reg, command, hctx)
				continue
			}
			hctx, err = runTransformStage(reg, command, stage, hctx)
			if err != nil {
				return fmt.Errorf("hook %s failed: %w", stage, err)
			}
		}
		return nil
	}
}

// SetResult attaches a value for postexec and notify hooks to see. It is a
// no-op when cmd is not running inside Wrap.
func SetResult(cmd *cobra.Command, v any) {
	if cmd.Context() == nil {
		return
	}
	if hctx, ok := cmd.Context().Value(ctxKey{}).(*Context); ok {
		hctx.Result = v
	}
}

func runTransformStage(reg *Registry, command string, stage Stage, ctx *Context) (*Context, error) {
	for _, h := range reg.Resolve(command, stage) {
		if h.Mode == ModeNotify {
			continue
		}
		result, err := h.Handler(ctx)
		if err != nil {
			return ctx, fmt.Errorf("hook %q (%s): %w", h.Name, stage, err)
		}
		if result != nil {
			ctx = result
		}
	}
	return ctx, nil
}

// runNotifyStage runs notify hooks concurrently and waits for them. Errors
// go to the log file rather than the terminal.
func runNotifyStage(reg *Registry, command string, ctx *Context) {
	hooks := reg.Resolve(command, StageNotify)
	if len(hooks) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, h := range hooks {
		wg.Add(1)
		go func(h Hook) {
			defer wg.Done()
			if _, err := h.Handler(ctx); err != nil {
				logger.Warn("notify hook failed", "hook", h.Name, "err", err)
			}
		}(h)
	}
	wg.Wait()
}

// extractFlags returns the flags the user set explicitly.
func extractFlags(cmd *cobra.Command) map[string]string {
	flags := make(map[string]string)
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			flags[f.Name] = f.Value.String()
		}
	})
	return flags
}
