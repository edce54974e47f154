// Package log is a context wrapper around slog.Logger
package log

import (
	"context"
	"io"
	stdlog "log"
	"os"
	"testing"

	"cdr.dev/slog"
	"cdr.dev/slog/sloggers/sloghuman"
	"cdr.dev/slog/sloggers/slogtest"
)

var _default = slog.Make(sloghuman.Sink(os.Stderr)).Named("default")

type loggerKey struct{}

func from(ctx context.Context) slog.Logger {
	l, ok := ctx.Value(loggerKey{}).(slog.Logger)
	if !ok {
		return _default
	}
	return l
}

func With(ctx context.Context, l slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// WithTB calls With with the result of slogtest.Make.
func WithTB(ctx context.Context, t testing.TB) context.Context {
	return With(ctx, slogtest.Make(t, &slogtest.Options{IgnoreErrors: true}))
}

// Writer attaches a human readable logger writing to w and routes the
// stdlib logger (used by gin and playwright) through it.
func Writer(ctx context.Context, w io.Writer, debug bool) context.Context {
	l := slog.Make(sloghuman.Sink(w))
	if debug {
		l = l.Leveled(slog.LevelDebug)
	}
	stdlog.SetOutput(slog.Stdlib(ctx, l, slog.LevelInfo).Writer())
	return With(ctx, l)
}

// Discard drops every log line.
func Discard(ctx context.Context) context.Context {
	return With(ctx, slog.Make(sloghuman.Sink(io.Discard)))
}

func Debug(ctx context.Context, msg string, fields ...slog.Field) {
	slog.Helper()
	from(ctx).Debug(ctx, msg, fields...)
}

func Info(ctx context.Context, msg string, fields ...slog.Field) {
	slog.Helper()
	from(ctx).Info(ctx, msg, fields...)
}

func Warn(ctx context.Context, msg string, fields ...slog.Field) {
	slog.Helper()
	from(ctx).Warn(ctx, msg, fields...)
}

func Error(ctx context.Context, msg string, fields ...slog.Field) {
	slog.Helper()
	from(ctx).Error(ctx, msg, fields...)
}

func Named(ctx context.Context, name string) context.Context {
	return With(ctx, from(ctx).Named(name))
}

func Leveled(ctx context.Context, level slog.Level) context.Context {
	return With(ctx, from(ctx).Leveled(level))
}

func Stdlib(ctx context.Context, level slog.Level) *stdlog.Logger {
	return slog.Stdlib(ctx, from(ctx), level)
}

// Fork returns ctx carrying the logger of loggerCtx.
func Fork(ctx, loggerCtx context.Context) context.Context {
	return With(ctx, from(loggerCtx))
}
