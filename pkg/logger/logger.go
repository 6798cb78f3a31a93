package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
	slogzerolog "github.com/samber/slog-zerolog/v2"

	"github.com/rs/zerolog"
)

// Logger is the logging interface used across the application.
// Args are alternating key/value pairs, slog style.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

type Opts struct {
	Env       string
	SentryURL string
}

type Impl struct {
	l *slog.Logger
}

var _ Logger = (*Impl)(nil)

func New(opts Opts) *Impl {
	level := slog.LevelDebug
	if opts.Env == "production" {
		level = slog.LevelInfo
	}

	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	handlers := []slog.Handler{
		slogzerolog.Option{Level: level, Logger: &zl}.NewZerologHandler(),
	}

	if opts.SentryURL != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         opts.SentryURL,
			Environment: opts.Env,
		})
		if err != nil {
			zl.Warn().Err(err).Msg("Failed to initialize Sentry, continuing without it")
		} else {
			handlers = append(handlers, slogsentry.Option{Level: slog.LevelError}.NewSentryHandler())
		}
	}

	return &Impl{l: slog.New(slogmulti.Fanout(handlers...))}
}

// NewNop returns a Logger that discards everything.
func NewNop() *Impl {
	return &Impl{l: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func (i *Impl) Debug(msg string, args ...any) { i.l.Debug(msg, args...) }
func (i *Impl) Info(msg string, args ...any)  { i.l.Info(msg, args...) }
func (i *Impl) Warn(msg string, args ...any)  { i.l.Warn(msg, args...) }
func (i *Impl) Error(msg string, args ...any) { i.l.Error(msg, args...) }

func (i *Impl) With(args ...any) Logger {
	return &Impl{l: i.l.With(args...)}
}

// Printf satisfies fx.Printer so the fx app can log through us.
func (i *Impl) Printf(format string, args ...any) {
	i.l.Info(fmt.Sprintf(format, args...))
}
