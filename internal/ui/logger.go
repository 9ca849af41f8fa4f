package ui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/moby/term"
)

// syncer is an interface for types that can sync to disk.
type syncer interface {
	Sync() error
}

//
// Public types & options
//

type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelDebug
	LogLevelDebugVerbose
)

// Options configures the Logger.
type Options struct {
	// Out is where we print user-facing logs.
	// In most cases this should be os.Stdout.
	Out io.Writer

	// FullLogWriter, if non-nil, receives all logs in plain text.
	FullLogWriter io.Writer

	// LogLevel control amount of logs print to stdout
	// greater the number => more logs coming out
	// error < info < warn < debug < debugVerbose
	LogLevel LogLevel

	// Component identifies the source of log messages (e.g., "build").
	// If empty, no component tag is included in log output.
	Component string

	// Plain disables styling. When Out is a terminal file it is detected
	// automatically.
	Plain bool
}

// Logger is the main stdout logger.
type Logger struct {
	out       io.Writer
	full      io.Writer
	mu        sync.Mutex
	style     styles
	component string

	logLevel LogLevel

	// fullLogBuffer holds log lines written before full log writer is set.
	// Once the full writer is set, this buffer is flushed and cleared.
	fullLogBuffer []string
}

// styles for log levels and boxes.
type styles struct {
	spacer     lipgloss.Style
	logInfo    lipgloss.Style
	logSuccess lipgloss.Style
	logNotice  lipgloss.Style
	logWarn    lipgloss.Style
	logError   lipgloss.Style
	banner     lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		spacer:     lipgloss.NewStyle(),
		logInfo:    lipgloss.NewStyle(),
		logSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("40")), // green
		logNotice:  lipgloss.NewStyle().Foreground(lipgloss.Color("39")), // blue
		logWarn:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // orange-ish
		logError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")), // red
		banner:     lipgloss.NewStyle().Bold(true).Border(lipgloss.NormalBorder()).Padding(0, 1).Margin(1, 0),
	}
}

func plainStyles() styles {
	s := lipgloss.NewStyle()
	return styles{spacer: s, logInfo: s, logSuccess: s, logNotice: s, logWarn: s, logError: s, banner: s}
}

//
// Construction & lifecycle
//

// New creates a new Logger.
func New(opts Options) *Logger {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	st := defaultStyles()
	if opts.Plain || !IsTerminal(opts.Out) {
		st = plainStyles()
	}

	return &Logger{
		out:       opts.Out,
		full:      opts.FullLogWriter,
		style:     st,
		logLevel:  opts.LogLevel,
		component: opts.Component,
	}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(f.Fd())
}

func (l *Logger) SetFullLogWriter(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Reject if already set
	if l.full != nil {
		timestamp := time.Now().Format("2006-01-02T15:04:05.000")
		errMsg := fmt.Sprintf("[%s] [ERR ] attempted to set full log writer when already set, ignoring\n", timestamp)
		fmt.Fprint(l.out, l.style.logError.Render(errMsg))
		return
	}

	l.full = w

	// Flush buffered log lines
	for _, line := range l.fullLogBuffer {
		io.WriteString(l.full, line)
	}
	l.fullLogBuffer = nil
}

func (l *Logger) SetComponent(component string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.component = component
}

// writeFullLogLocked writes to the full log writer if set, otherwise buffers.
// Must be called with l.mu held.
func (l *Logger) writeFullLogLocked(line string) {
	if l.full != nil {
		io.WriteString(l.full, line)
	} else {
		l.fullLogBuffer = append(l.fullLogBuffer, line)
	}
}

// Close closes the full log if it's an io.Closer.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if c, ok := l.full.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

//
// Basic logging
//

func (l *Logger) Spacer() {
	l.printLog(false, "", l.style.spacer, "")
}

func (l *Logger) Error(format string, args ...any) {
	l.printLog(false, "ERR ", l.style.logError, format, args...)
}

func (l *Logger) Info(format string, args ...any) {
	silent := l.logLevel < LogLevelInfo
	l.printLog(silent, "INFO", l.style.logInfo, format, args...)
}

// Success is an info line rendered as a positive outcome.
func (l *Logger) Success(format string, args ...any) {
	silent := l.logLevel < LogLevelInfo
	l.printLog(silent, "OK  ", l.style.logSuccess, format, args...)
}

// Notice is an info line that stands out from regular progress output.
func (l *Logger) Notice(format string, args ...any) {
	silent := l.logLevel < LogLevelInfo
	l.printLog(silent, "INFO", l.style.logNotice, format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	silent := l.logLevel < LogLevelWarn
	l.printLog(silent, "WARN", l.style.logWarn, format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	if l.logLevel >= LogLevelDebug {
		l.printLog(false, "DEBG", l.style.logInfo, format, args...)
	}
}

func (l *Logger) SetLogLevel(logLevel LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logLevel = logLevel
}

func (l *Logger) formatCaller(format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	if l.logLevel < LogLevelDebugVerbose {
		return msg
	}
	pc, file, line, ok := runtime.Caller(4)
	if !ok {
		file = "?"
		line = 0
	}

	fn := runtime.FuncForPC(pc)
	var fnName string
	if fn != nil {
		fnName = strings.ReplaceAll(fn.Name(), "github.com/0xa1bed0/dimg", "")
	}

	return fmt.Sprintf("[%s:%d %s] %s", filepath.Base(file), line, fnName, msg)
}

func (l *Logger) printLog(silent bool, level string, style lipgloss.Style, format string, args ...any) {
	msg := l.formatCaller(format, args...)
	timestamp := time.Now().Format("2006-01-02T15:04:05.000")

	l.mu.Lock()
	defer l.mu.Unlock()

	componentTag := ""
	if l.component != "" {
		componentTag = fmt.Sprintf("[%s] ", l.component)
	}

	// Format for full log: no timestamp (TimestampWriter adds it at the destination)
	logLine := componentTag + msg + "\n"
	if level != "" {
		logLine = fmt.Sprintf("[%s] %s%s\n", level, componentTag, msg)
	}

	stdoutLine := fmt.Sprintf("[%s] %s%s", timestamp, componentTag, msg)
	if level != "" {
		stdoutLine = fmt.Sprintf("[%s] [%s] %s%s", timestamp, level, componentTag, msg)
	}

	l.writeFullLogLocked(logLine)

	if !silent {
		fmt.Fprintln(l.out, style.Render(stdoutLine))
	}
}

// Banner prints a nice box title.
func (l *Logger) Banner(title string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	bannerLine := fmt.Sprintf("\n===== %s =====\n\n", title)
	l.writeFullLogLocked(bannerLine)
	// Force sync for important banners to ensure immediate visibility
	if s, ok := l.full.(syncer); ok {
		s.Sync()
	}

	fmt.Fprintln(l.out, l.style.banner.Render(title))
}
