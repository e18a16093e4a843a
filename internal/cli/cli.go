package cli

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/schollz/progressbar/v3"
	"github.com/xeipuuv/gojsonschema"
	"golang.org/x/term"

	"github.com/stackvity/webp-converter/internal/cli/hooks"
	"github.com/stackvity/webp-converter/internal/cli/ui"
	"github.com/stackvity/webp-converter/pkg/converter"
)

// ErrConversionFailures is returned when the batch ran but some files failed.
var ErrConversionFailures = errors.New("some files failed to convert")

//go:embed report.schema.json
var reportSchema string

// Output streams and TTY detection, replaceable in tests.
var (
	stdout     io.Writer = os.Stdout
	stderr     io.Writer = os.Stderr
	isTerminal           = func(f *os.File) bool { return term.IsTerminal(int(f.Fd())) }
)

// Run executes a batch conversion with the configured presentation: the TUI
// when enabled and attached to a terminal, a progress bar on an interactive
// stderr, or plain progress lines otherwise.
func Run(ctx context.Context, opts converter.Options, logger *slog.Logger) error {
	jsonOutput := opts.OutputFormat == converter.OutputFormatJSON
	useTUI := opts.TuiEnabled && !jsonOutput && isTerminal(os.Stdout)
	useProgress := !useTUI && !opts.Verbose && isTerminal(os.Stderr)

	// Progress lines must not mix with the JSON document on stdout.
	lineOut := stdout
	if jsonOutput {
		lineOut = stderr
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hookOpts := hooks.Options{
		TUIEnabled:     useTUI,
		VerboseEnabled: opts.Verbose,
		ErrorsOnly:     opts.ErrorsOnly,
		Out:            lineOut,
		ErrOut:         stderr,
	}
	var program *tea.Program
	if useTUI {
		program = tea.NewProgram(ui.NewModel(opts.AppVersion), tea.WithAltScreen())
		hookOpts.TUIProgram = program
	}
	if useProgress {
		hookOpts.ProgressBar = newProgressBar()
	}
	h := hooks.NewCLIHooks(logger, hookOpts)
	opts.EventHooks = h

	runBatch := func() (converter.Report, error) {
		sink := converter.NewChannelSink(h.HandleLine, 64)
		report, err := converter.Run(ctx, opts, sink)
		sink.Close()
		if isFatal(report, err) {
			h.HandleFatal(err)
		}
		return report, err
	}

	if !useTUI {
		report, err := runBatch()
		return finish(report, err, opts, logger)
	}

	type batchResult struct {
		report converter.Report
		err    error
	}
	done := make(chan batchResult, 1)
	go func() {
		report, err := runBatch()
		done <- batchResult{report, err}
	}()

	_, tuiErr := program.Run()
	// Quitting the TUI early stops dispatch; in-flight files still finish.
	cancel()
	res := <-done
	if tuiErr != nil {
		logger.Error("TUI exited with error", slog.String("error", tuiErr.Error()))
		return fmt.Errorf("tui: %w", tuiErr)
	}
	if res.err == nil || isFatal(res.report, res.err) {
		// The TUI screen is gone; repeat the outcome on the terminal.
		if isFatal(res.report, res.err) {
			_, _ = fmt.Fprintf(stdout, "Fatal error: %v\n", res.err)
		} else {
			_, _ = fmt.Fprintln(stdout, strings.TrimPrefix(res.report.Summary.SummaryBlock(), "\n"))
		}
	}
	return finish(res.report, res.err, opts, logger)
}

// RunSingle converts one file and prints the same line a batch would.
func RunSingle(inputPath, outputPath string, quality float32, lossless bool, logger *slog.Logger) error {
	if err := converter.ConvertSingle(inputPath, outputPath, quality, lossless); err != nil {
		logger.Debug("Single conversion failed", slog.String("input", inputPath), slog.String("error", err.Error()))
		_, _ = fmt.Fprintln(stdout, converter.LinePrefixError+err.Error())
		return err
	}
	_, _ = fmt.Fprintln(stdout, converter.LinePrefixConverted+inputPath)
	return nil
}

// isFatal reports whether err stopped the batch before it produced a report.
func isFatal(report converter.Report, err error) bool {
	return err != nil && report.Summary.RunID == ""
}

// finish prints the JSON report when requested and maps the outcome to the
// command's error.
func finish(report converter.Report, err error, opts converter.Options, logger *slog.Logger) error {
	if isFatal(report, err) {
		return err
	}
	if opts.OutputFormat == converter.OutputFormatJSON {
		if writeErr := writeJSONReport(stdout, report, logger); writeErr != nil {
			return writeErr
		}
	}
	if err != nil {
		logger.Warn("Conversion interrupted", slog.Int("cancelled", report.Summary.CancelledCount))
		return err
	}
	if report.Summary.ErrorCount > 0 {
		return fmt.Errorf("%w: %d of %d", ErrConversionFailures, report.Summary.ErrorCount, report.Summary.Total)
	}
	return nil
}

// writeJSONReport encodes the report and checks it against the published
// report schema before writing it.
func writeJSONReport(w io.Writer, report converter.Report, logger *slog.Logger) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := validateReport(data); err != nil {
		logger.Warn("Report does not match schema", slog.String("error", err.Error()))
	}
	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// validateReport checks a JSON report document against report.schema.json.
func validateReport(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(reportSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("schema validation failed to run: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("invalid report: %s", strings.Join(msgs, "; "))
	}
	return nil
}

func newProgressBar() *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Converting"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionShowIts(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionThrottle(65*time.Millisecond),
	)
}
