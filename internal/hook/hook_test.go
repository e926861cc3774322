package hook

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rnwolfe/habit/internal/logger"
	"github.com/spf13/cobra"
)

func TestNewContext(t *testing.T) {
	ctx := NewContext("done", []string{"Read"}, map[string]string{"date": "2026-02-25"})

	if ctx.Command != "done" {
		t.Errorf("Command = %q, want %q", ctx.Command, "done")
	}
	if len(ctx.Args) != 1 || ctx.Args[0] != "Read" {
		t.Errorf("Args = %v, want [Read]", ctx.Args)
	}
	if ctx.Flags["date"] != "2026-02-25" {
		t.Errorf("Flags[date] = %q, want %q", ctx.Flags["date"], "2026-02-25")
	}
	if ctx.Started.IsZero() {
		t.Error("Started should be set")
	}
}

func TestNewContextNilDefaults(t *testing.T) {
	ctx := NewContext("list", nil, nil)
	if ctx.Args == nil || ctx.Flags == nil {
		t.Fatal("nil args/flags should become empty values")
	}
}

func TestContextJSON(t *testing.T) {
	ctx := NewContext("config.set", []string{"user.name", "Ada"}, map[string]string{"debug": "true"})
	ctx.Result = 3

	data, err := ctx.JSON()
	if err != nil {
		t.Fatalf("JSON() error: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["command"] != "config.set" {
		t.Errorf("command = %v, want config.set", got["command"])
	}
	if args, _ := got["args"].([]any); len(args) != 2 || args[1] != "Ada" {
		t.Errorf("args = %v", got["args"])
	}
	if got["result"] != float64(3) {
		t.Errorf("result = %v, want 3", got["result"])
	}
}

func TestContextJSONUnencodableResult(t *testing.T) {
	ctx := NewContext("done", nil, nil)
	ctx.Result = make(chan int)
	if _, err := ctx.JSON(); err == nil {
		t.Fatal("expected error for a result that cannot be encoded")
	}
}

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern, command string
		want             bool
	}{
		{"done", "done", true},
		{"done", "undo", false},
		{"config.*", "config.set", true},
		{"config.*", "config", false},
		{"*", "done", true},
		{"*", "config.get", true},
		{"[", "done", false},
	}
	for _, tt := range tests {
		if got := matchPattern(tt.pattern, tt.command); got != tt.want {
			t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.command, got, tt.want)
		}
	}
}

func TestRegistryResolveSortedByName(t *testing.T) {
	reg := &Registry{}
	reg.Register(Hook{Pattern: "done", Stage: StagePreexec, Mode: ModeTransform, Name: "zeta"})
	reg.Register(Hook{Pattern: "*", Stage: StagePreexec, Mode: ModeTransform, Name: "alpha"})
	reg.Register(Hook{Pattern: "done", Stage: StageNotify, Mode: ModeNotify, Name: "notify"})
	reg.Register(Hook{Pattern: "undo", Stage: StagePreexec, Mode: ModeTransform, Name: "other"})

	hooks := reg.Resolve("done", StagePreexec)
	if len(hooks) != 2 {
		t.Fatalf("Resolve(done, preexec) got %d hooks, want 2", len(hooks))
	}
	if hooks[0].Name != "alpha" || hooks[1].Name != "zeta" {
		t.Errorf("hooks not sorted: got %q, %q", hooks[0].Name, hooks[1].Name)
	}
	if got := reg.Resolve("undo", StageNotify); len(got) != 0 {
		t.Errorf("Resolve(undo, notify) = %d hooks, want 0", len(got))
	}
}

func TestRegistryUnregister(t *testing.T) {
	reg := &Registry{}
	reg.Register(Hook{Pattern: "*", Stage: StageNotify, Mode: ModeNotify, Name: "a", Source: SourceBuiltin})
	reg.Register(Hook{Pattern: "*", Stage: StageNotify, Mode: ModeNotify, Name: "b", Source: "test"})
	reg.Register(Hook{Pattern: "*", Stage: StageNotify, Mode: ModeNotify, Name: "c", Source: SourceBuiltin})

	reg.Unregister(SourceBuiltin)
	if reg.Count() != 1 {
		t.Fatalf("Count() after Unregister = %d, want 1", reg.Count())
	}
	if hooks := reg.Resolve("done", StageNotify); hooks[0].Name != "b" {
		t.Errorf("remaining hook = %q, want b", hooks[0].Name)
	}
}

func TestRegistryHasHooks(t *testing.T) {
	reg := &Registry{}
	if reg.HasHooks("done") {
		t.Error("empty registry should have no hooks")
	}
	reg.Register(Hook{Pattern: "config.*", Stage: StagePreexec, Mode: ModeTransform, Name: "t"})
	if !reg.HasHooks("config.set") {
		t.Error("should have hooks for config.set")
	}
	if reg.HasHooks("done") {
		t.Error("should not have hooks for done")
	}
}

func TestTransformStageChaining(t *testing.T) {
	reg := &Registry{}
	reg.Register(Hook{
		Pattern: "add", Stage: StagePreexec, Mode: ModeTransform, Name: "a-trim",
		Handler: func(ctx *Context) (*Context, error) {
			ctx.Args[0] = strings.TrimSpace(ctx.Args[0])
			return ctx, nil
		},
	})
	reg.Register(Hook{
		Pattern: "add", Stage: StagePreexec, Mode: ModeTransform, Name: "b-suffix",
		Handler: func(ctx *Context) (*Context, error) {
			ctx.Args[0] += "!"
			return ctx, nil
		},
	})
	// Notify-mode hooks are skipped by transform stages.
	reg.Register(Hook{
		Pattern: "add", Stage: StagePreexec, Mode: ModeNotify, Name: "c-ignored",
		Handler: func(ctx *Context) (*Context, error) {
			ctx.Args[0] = "clobbered"
			return ctx, nil
		},
	})

	got, err := runTransformStage(reg, "add", StagePreexec, NewContext("add", []string{"  Read  "}, nil))
	if err != nil {
		t.Fatalf("runTransformStage error: %v", err)
	}
	if got.Args[0] != "Read!" {
		t.Errorf("chained result = %q, want %q", got.Args[0], "Read!")
	}
}

func TestTransformStageError(t *testing.T) {
	reg := &Registry{}
	boom := errors.New("hook broke")
	reg.Register(Hook{
		Pattern: "add", Stage: StagePrevalidate, Mode: ModeTransform, Name: "failing",
		Handler: func(ctx *Context) (*Context, error) { return nil, boom },
	})

	_, err := runTransformStage(reg, "add", StagePrevalidate, NewContext("add", nil, nil))
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped %v", err, boom)
	}
	if !strings.Contains(err.Error(), `"failing"`) {
		t.Errorf("error should name the hook: %v", err)
	}
}

func TestNotifyStageRunsAll(t *testing.T) {
	reg := &Registry{}
	var count atomic.Int32
	for i := 0; i < 5; i++ {
		reg.Register(Hook{
			Pattern: "done", Stage: StageNotify, Mode: ModeNotify, Name: string(rune('a' + i)),
			Handler: func(ctx *Context) (*Context, error) {
				count.Add(1)
				return nil, errors.New("ignored")
			},
		})
	}
	runNotifyStage(reg, "done", NewContext("done", nil, nil))
	if count.Load() != 5 {
		t.Errorf("notify count = %d, want 5", count.Load())
	}
}

func TestWrapWithPipeline(t *testing.T) {
	reg := &Registry{}
	var seen *Context
	reg.Register(Hook{
		Pattern: "add", Stage: StagePreexec, Mode: ModeTransform, Name: "upper",
		Handler: func(ctx *Context) (*Context, error) {
			ctx.Args = []string{strings.ToUpper(ctx.Args[0])}
			return ctx, nil
		},
	})
	reg.Register(Hook{
		Pattern: "add", Stage: StageNotify, Mode: ModeNotify, Name: "capture",
		Handler: func(ctx *Context) (*Context, error) {
			seen = ctx
			return nil, nil
		},
	})

	cmd := &cobra.Command{Use: "add"}
	cmd.Flags().String("note", "", "")
	if err := cmd.Flags().Set("note", "x"); err != nil {
		t.Fatal(err)
	}

	var gotArg string
	run := WrapWith(reg, "add", func(cmd *cobra.Command, args []string) error {
		gotArg = args[0]
		SetResult(cmd, 42)
		return nil
	})
	if err := run(cmd, []string{"read"}); err != nil {
		t.Fatalf("run: %v", err)
	}

	if gotArg != "READ" {
		t.Errorf("command saw %q, want READ", gotArg)
	}
	if seen == nil {
		t.Fatal("notify hook did not run")
	}
	if seen.Result != 42 {
		t.Errorf("Result = %v, want 42", seen.Result)
	}
	if seen.Flags["note"] != "x" {
		t.Errorf("Flags = %v, want note=x", seen.Flags)
	}
}

func TestWrapWithSkipsNotifyOnError(t *testing.T) {
	reg := &Registry{}
	called := false
	reg.Register(Hook{
		Pattern: "done", Stage: StageNotify, Mode: ModeNotify, Name: "n",
		Handler: func(ctx *Context) (*Context, error) { called = true; return nil, nil },
	})

	fail := errors.New("no such habit")
	run := WrapWith(reg, "done", func(*cobra.Command, []string) error { return fail })
	if err := run(&cobra.Command{}, nil); !errors.Is(err, fail) {
		t.Fatalf("err = %v, want %v", err, fail)
	}
	if called {
		t.Error("notify hook ran after a failed command")
	}
}

func TestWrapWithNoHooksCallsThrough(t *testing.T) {
	called := false
	run := WrapWith(&Registry{}, "list", func(*cobra.Command, []string) error { called = true; return nil })
	if err := run(&cobra.Command{}, nil); err != nil || !called {
		t.Fatalf("called=%v err=%v", called, err)
	}
}

func TestSetResultOutsideWrap(t *testing.T) {
	// Must not panic without a hook context.
	SetResult(&cobra.Command{}, "x")
}

func TestBuiltinsLogCommandsAndMilestones(t *testing.T) {
	var buf bytes.Buffer
	if err := logger.Init(logger.Config{Debug: true, File: t.TempDir() + "/habit.log", Stderr: &buf}); err != nil {
		t.Fatalf("logger.Init: %v", err)
	}
	t.Cleanup(func() { logger.Close() })

	reg := &Registry{}
	RegisterBuiltins(reg)
	if reg.Count() != 2 {
		t.Fatalf("builtins = %d, want 2", reg.Count())
	}

	run := WrapWith(reg, "done", func(cmd *cobra.Command, args []string) error {
		SetResult(cmd, Milestone{Habit: "Read", Streak: 7, Message: "A full week!"})
		return nil
	})
	if err := run(&cobra.Command{}, []string{"Read"}); err != nil {
		t.Fatalf("run: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "milestone reached") {
		t.Errorf("log missing milestone line:\n%s", out)
	}
	if !strings.Contains(out, "command") || !strings.Contains(out, "done") {
		t.Errorf("log missing command line:\n%s", out)
	}
	if !strings.Contains(out, "context=") || !strings.Contains(out, "Read") {
		t.Errorf("command line should carry the encoded context:\n%s", out)
	}
}

func TestWrapWithRunsStagesInOrder(t *testing.T) {
	reg := &Registry{}
	var order []string
	for _, stage := range AllStages {
		mode := ModeTransform
		if stage == StageNotify {
			mode = ModeNotify
		}
		reg.Register(Hook{
			Pattern: "done", Stage: stage, Mode: mode, Name: string(stage),
			Handler: func(ctx *Context) (*Context, error) {
				order = append(order, string(stage))
				return nil, nil
			},
		})
	}

	run := WrapWith(reg, "done", func(*cobra.Command, []string) error {
		order = append(order, "command")
		return nil
	})
	if err := run(&cobra.Command{}, nil); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := "prevalidate preexec command postexec notify"
	if got := strings.Join(order, " "); got != want {
		t.Errorf("order = %q, want %q", got, want)
	}
}

func TestWrapWithStageErrorNamesStage(t *testing.T) {
	reg := &Registry{}
	reg.Register(Hook{
		Pattern: "done", Stage: StagePostexec, Mode: ModeTransform, Name: "boom",
		Handler: func(*Context) (*Context, error) { return nil, errors.New("boom") },
	})
	run := WrapWith(reg, "done", func(*cobra.Command, []string) error { return nil })
	err := run(&cobra.Command{}, nil)
	if err == nil || !strings.Contains(err.Error(), "hook postexec failed") {
		t.Fatalf("err = %v, want postexec failure", err)
	}
}

func TestRegisterBuiltinsIsIdempotent(t *testing.T) {
	reg := &Registry{}
	reg.Register(Hook{Pattern: "*", Stage: StageNotify, Mode: ModeNotify, Name: "mine", Source: "test"})

	RegisterBuiltins(reg)
	RegisterBuiltins(reg)

	if reg.Count() != 3 {
		t.Fatalf("Count() = %d, want 2 builtins plus 1 other", reg.Count())
	}
}
