package converter

import (
	"context"
	"io"
	"log/slog"
)

// Run is the main entry point for the conversion library. It builds a
// BatchRunner from opts and executes it, streaming progress lines to sink.
func Run(ctx context.Context, opts Options, sink LogSink) (Report, error) {
	runner, err := NewBatchRunner(opts)
	if err != nil {
		newLogger(opts.Logger, "batch").Error("Invalid options", slog.String("error", err.Error()))
		return Report{}, err
	}
	return runner.Run(ctx, sink)
}

// ConvertSingle converts one image file to WebP. An existing output is left
// untouched and is not an error.
func ConvertSingle(inputPath, outputPath string, quality float32, lossless bool) error {
	_, err := NewConverter(nil, nil).Convert(ConversionRequest{
		InputPath:  inputPath,
		OutputPath: outputPath,
		Quality:    quality,
		Lossless:   lossless,
	})
	return err
}

// ConvertDirectory converts every supported image directly inside inputDir
// into outputDir. observer receives each progress line, one call at a time,
// and has received every line (the summary block last) by the time
// ConvertDirectory returns. The returned error is non-nil only for failures
// that prevent the batch from running; per-file failures are reported
// through observer.
func ConvertDirectory(inputDir, outputDir string, quality float32, lossless bool, observer func(line string)) error {
	sink := NewChannelSink(observer, 64)
	defer sink.Close()

	_, err := Run(context.Background(), Options{
		InputPath:  inputDir,
		OutputPath: outputDir,
		Quality:    quality,
		Lossless:   lossless,
	}, sink)
	return err
}

// newLogger scopes handler to a component. A nil handler discards output.
func newLogger(handler slog.Handler, component string) *slog.Logger {
	if handler == nil {
		return discardLogger()
	}
	return slog.New(handler).With(slog.String("component", component))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
