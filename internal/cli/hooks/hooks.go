package hooks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stackvity/webp-converter/pkg/converter"
)

// --- TUI Message Structs ---

// FileDiscoveredMsg signals that a candidate was found in the input directory.
type FileDiscoveredMsg struct{ Path string }

// FileStatusUpdateMsg signals a change in a candidate's processing status.
type FileStatusUpdateMsg struct {
	Path     string
	Status   converter.Status
	Message  string
	Duration time.Duration
}

// LogLineMsg carries one progress line from the batch log sink.
type LogLineMsg struct{ Line string }

// RunCompleteMsg signals the completion of the entire batch.
type RunCompleteMsg struct{ Report converter.Report }

// FatalErrorMsg signals that the batch could not run at all.
type FatalErrorMsg struct{ Err error }

// --- Hook Implementation ---

// CLIHooks implements converter.Hooks and doubles as the batch log sink
// observer, bridging library events to the CLI's output (TUI, progress bar or
// plain text).
type CLIHooks struct {
	logger          *slog.Logger
	tuiEnabled      bool
	verboseEnabled  bool
	errorsOnly      bool
	progressEnabled bool
	tuiProgram      TUIProgram
	progressBar     ProgressBar
	out             io.Writer
	errOut          io.Writer
	mu              sync.Mutex // Protects progressBar and discovered
	discovered      int
}

// TUIProgram defines the interface needed to interact with the Bubble Tea program.
type TUIProgram interface {
	Send(msg tea.Msg)
}

// ProgressBar defines the interface needed to interact with the progress bar.
type ProgressBar interface {
	Add(num int) error
	ChangeMax(newMax int)
	Close() error
}

// --- No-Op Implementations for Decoupling ---

// NoOpTUIProgram provides a default null implementation.
type NoOpTUIProgram struct{}

// Send implements TUIProgram.
func (n *NoOpTUIProgram) Send(msg tea.Msg) {}

// NoOpProgressBar provides a default null implementation.
type NoOpProgressBar struct{}

// Add implements ProgressBar.
func (n *NoOpProgressBar) Add(num int) error { return nil }

// ChangeMax implements ProgressBar.
func (n *NoOpProgressBar) ChangeMax(newMax int) {}

// Close implements ProgressBar.
func (n *NoOpProgressBar) Close() error { return nil }

// --- Constructor ---

// Options selects how CLIHooks presents events.
type Options struct {
	TUIEnabled     bool
	VerboseEnabled bool
	ErrorsOnly     bool
	TUIProgram     TUIProgram  // nil when the TUI is not running
	ProgressBar    ProgressBar // nil disables progress bar mode
	Out            io.Writer   // progress lines in plain mode
	ErrOut         io.Writer   // progress bar terminal newline
}

// NewCLIHooks creates a new CLIHooks instance.
func NewCLIHooks(logger *slog.Logger, o Options) *CLIHooks {
	h := &CLIHooks{
		logger:          logger,
		tuiEnabled:      o.TUIEnabled,
		verboseEnabled:  o.VerboseEnabled,
		errorsOnly:      o.ErrorsOnly,
		progressEnabled: o.ProgressBar != nil && !o.TUIEnabled,
		tuiProgram:      o.TUIProgram,
		progressBar:     o.ProgressBar,
		out:             o.Out,
		errOut:          o.ErrOut,
	}
	if h.tuiProgram == nil {
		h.tuiProgram = &NoOpTUIProgram{}
	}
	if h.progressBar == nil {
		h.progressBar = &NoOpProgressBar{}
	}
	if h.out == nil {
		h.out = io.Discard
	}
	if h.errOut == nil {
		h.errOut = io.Discard
	}
	return h
}

// --- Log Sink Observer ---

// HandleLine receives each line the batch appends to its log sink. The sink
// calls it from a single goroutine.
func (h *CLIHooks) HandleLine(line string) {
	if h.errorsOnly && strings.HasPrefix(line, "Converted") {
		return
	}
	if h.tuiEnabled {
		h.tuiProgram.Send(LogLineMsg{Line: line})
		return
	}
	// The bar already shows successful items.
	if h.progressEnabled && strings.HasPrefix(line, converter.LinePrefixConverted) {
		return
	}
	_, _ = fmt.Fprintln(h.out, line)
}

// HandleFatal reports an error that stopped the batch before or instead of the summary.
func (h *CLIHooks) HandleFatal(err error) {
	if h.tuiEnabled {
		h.tuiProgram.Send(FatalErrorMsg{Err: err})
		return
	}
	_, _ = fmt.Fprintf(h.out, "Fatal error: %v\n", err)
}

// --- Interface Method Implementations ---

// OnFileDiscovered handles the event when a candidate is listed.
func (h *CLIHooks) OnFileDiscovered(path string) error {
	switch {
	case h.tuiEnabled:
		h.tuiProgram.Send(FileDiscoveredMsg{Path: path})
	case h.progressEnabled:
		h.mu.Lock()
		h.discovered++
		h.progressBar.ChangeMax(h.discovered)
		h.mu.Unlock()
	case h.verboseEnabled:
		h.logger.Debug("File discovered", "path", path)
	}
	return nil
}

// OnFileStatusUpdate handles events when a candidate's status changes.
// This method MUST be thread-safe.
func (h *CLIHooks) OnFileStatusUpdate(path string, status converter.Status, message string, duration time.Duration) error {
	if h.tuiEnabled {
		h.tuiProgram.Send(FileStatusUpdateMsg{
			Path:     path,
			Status:   status,
			Message:  message,
			Duration: duration,
		})
		return nil
	}

	if h.verboseEnabled {
		logLevel := slog.LevelDebug
		logMsg := "File status updated"
		attrs := []any{
			slog.String("path", path),
			slog.String("status", string(status)),
		}
		if duration > 0 {
			attrs = append(attrs, slog.Duration("duration", duration))
		}
		if message != "" {
			attrs = append(attrs, slog.String("error", message))
		}
		switch status {
		case converter.StatusSuccess, converter.StatusSkipped:
			logLevel = slog.LevelInfo
		case converter.StatusFailed:
			logLevel = slog.LevelError
			logMsg = "File conversion failed"
		}
		h.logger.Log(context.Background(), logLevel, logMsg, attrs...)
	}

	if h.progressEnabled && status.IsFinal() {
		h.mu.Lock()
		_ = h.progressBar.Add(1)
		h.mu.Unlock()
	}
	return nil
}

// OnRunComplete sends the final report to the TUI or finalizes the progress bar.
func (h *CLIHooks) OnRunComplete(report converter.Report) error {
	if h.tuiEnabled {
		h.tuiProgram.Send(RunCompleteMsg{Report: report})
		return nil
	}
	if h.progressEnabled {
		h.mu.Lock()
		_ = h.progressBar.Close()
		h.mu.Unlock()
		// Keep the prompt off the bar's line.
		_, _ = fmt.Fprintln(h.errOut)
	}
	return nil
}
