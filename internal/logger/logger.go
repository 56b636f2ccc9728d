package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

var Log *slog.Logger = slog.Default()

// Init installs the process-wide logger.
// Development logs text at debug level, everything else JSON at info level.
// With a Sentry DSN, error records are also forwarded to Sentry.
// The returned function flushes pending Sentry events and should be deferred by main.
func Init(isDev bool, sentryDSN string) func() {
	handlers := []slog.Handler{baseHandler(os.Stdout, isDev)}
	flush := func() {}

	if sentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              sentryDSN,
			TracesSampleRate: 1.0,
		})
		if err == nil {
			handlers = append(handlers, slogsentry.Option{
				Level: slog.LevelError,
			}.NewSentryHandler())
			flush = func() { sentry.Flush(2 * time.Second) }
		} else {
			slog.Warn("sentry disabled", "error", err)
		}
	}

	Log = slog.New(combine(handlers))
	slog.SetDefault(Log)

	return flush
}

func baseHandler(w io.Writer, isDev bool) slog.Handler {
	if isDev {
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
}

func combine(handlers []slog.Handler) slog.Handler {
	if len(handlers) == 1 {
		return handlers[0]
	}
	return slogmulti.Fanout(handlers...)
}
