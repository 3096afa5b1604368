package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"github.com/utkarsh5026/futures/pool"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	bold  = color.New(color.Bold)
	green = color.New(color.FgGreen, color.Bold)
	faint = color.New(color.Faint)
)

// printResults writes the values as a bracketed list followed by the elapsed
// milliseconds, rounded up.
func printResults(w io.Writer, values []int, elapsed time.Duration) {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}

	fmt.Fprintf(w, "[%s]\n", strings.Join(parts, ", "))
	green.Fprintf(w, "End at %d msec\n", ceilMillis(elapsed))
}

func printStats(w io.Writer, s pool.Stats, workers []pool.WorkerInfo) {
	fmt.Fprintln(w)
	bold.Fprintln(w, "Pool statistics")

	table := tablewriter.NewWriter(w)
	table.Header("Metric", "Value")
	rows := [][]string{
		{"Workers", fmt.Sprintf("%d (%d live)", s.Workers, s.LiveWorkers)},
		{"Submitted", strconv.FormatInt(s.Submitted, 10)},
		{"Completed", strconv.FormatInt(s.Completed, 10)},
		{"Failed", strconv.FormatInt(s.Failed, 10)},
		{"Retried", strconv.FormatInt(s.Retried, 10)},
		{"Workers lost", strconv.FormatInt(s.Lost, 10)},
		{"Cancelled", strconv.FormatInt(s.Cancelled, 10)},
		{"Latency p50", formatLatency(s.Latency.P50)},
		{"Latency p95", formatLatency(s.Latency.P95)},
		{"Latency p99", formatLatency(s.Latency.P99)},
		{"Latency max", formatLatency(s.Latency.Max)},
	}
	for _, r := range rows {
		_ = table.Append(r[0], r[1])
	}
	_ = table.Render()

	fmt.Fprintln(w)
	bold.Fprintln(w, "Workers")

	wt := tablewriter.NewWriter(w)
	wt.Header("ID", "Status", "Completed")
	for _, wi := range workers {
		_ = wt.Append(strconv.Itoa(wi.ID), wi.Status.String(), strconv.FormatInt(wi.Completed, 10))
	}
	_ = wt.Render()
}

func ceilMillis(d time.Duration) int64 {
	return int64((d + time.Millisecond - 1) / time.Millisecond)
}

func formatLatency(d time.Duration) string {
	if d == 0 {
		return faint.Sprint("-")
	}
	return d.Round(time.Microsecond).String()
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Squaring"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// newLogger builds a console logger on w. Only warnings and errors are shown
// unless verbose is set.
func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(w), level)
	return zap.New(core).Named("scoop")
}

func newTracerProvider(w io.Writer) (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
	), nil
}
