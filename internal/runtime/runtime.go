package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"time"

	dimgconfig "github.com/0xa1bed0/dimg/internal/apps/dimg/config"
	"github.com/0xa1bed0/dimg/internal/logs"
	"github.com/0xa1bed0/dimg/internal/ui"
)

type Runtime struct {
	runID string

	ctx        context.Context    // global context
	cancelFunc context.CancelFunc // cancelFunc of global context

	logPath string
}

func (rt *Runtime) CancelCtx() {
	rt.cancelFunc()
}

func (rt *Runtime) Ctx() context.Context {
	return rt.ctx
}

func (rt *Runtime) RunID() string {
	return rt.runID
}

// LogPath is the full log of this run, empty when it could not be opened.
func (rt *Runtime) LogPath() string {
	return rt.logPath
}

type runtimeKey struct{}

func NewRuntime() *Runtime {
	baseCtx, cancel := context.WithCancel(context.Background())
	rt := &Runtime{
		runID:      strconv.FormatInt(time.Now().Unix(), 10),
		cancelFunc: cancel,
	}
	// Commands load the runtime from their context once, at the handler root.
	rt.ctx = context.WithValue(baseCtx, runtimeKey{}, rt)
	return rt
}

func FromContext(ctx context.Context) *Runtime {
	v := ctx.Value(runtimeKey{})
	if v == nil {
		return nil
	}
	rt, _ := v.(*Runtime)
	return rt
}

func FromContextOrPanic(ctx context.Context) *Runtime {
	rt := FromContext(ctx)
	if rt == nil {
		panic(errors.New("runtime not found in this context"))
	}
	return rt
}

// OpenRunLog attaches a per-run plain text log file to the global logger.
// Failing to open it only produces a warning.
func (rt *Runtime) OpenRunLog() {
	if rt.logPath != "" {
		return
	}

	logPath, err := dimgconfig.RunLogPath(rt.RunID())
	if err != nil {
		logs.Warnf("can't create log file: %v", err)
		return
	}
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		logs.Warnf("can't open log file: %v", err)
		return
	}

	rt.logPath = logPath
	logs.SetFullLogWriter(ui.NewTimestampWriter(f))
	logs.Debugf("full log: %s", logPath)
}

// Finalize handles both panic and normal exit.
// Call it in a defer at the top of main.
func (rt *Runtime) Finalize(appName, helpHint string, execErr *error) {
	if r := recover(); r != nil {
		fmt.Fprintf(os.Stderr, "%s panic: %v\n", appName, r)
		fmt.Fprintf(os.Stderr, "%s\n", debug.Stack())
		fmt.Fprintln(os.Stderr, "")
		if helpHint != "" {
			fmt.Fprintln(os.Stderr, helpHint)
		}

		rt.CancelCtx()
		logs.Close()
		os.Exit(1)
	}

	rt.CancelCtx()

	if execErr != nil && *execErr != nil {
		logs.Errorf("%s error: %v", appName, *execErr)
		if rt.LogPath() != "" {
			fmt.Fprintf(os.Stderr, "Full log: %s\n", rt.LogPath())
		}
		if helpHint != "" {
			fmt.Fprintln(os.Stderr, helpHint)
		}
		logs.Close()
		os.Exit(1)
	}

	logs.Close()
}
