// Package logger builds slog loggers for Mosaic applications.
//
// Loggers write JSON or text records and can forward warnings and errors
// to Sentry. Context extractors add request-scoped attributes, such as a
// request id, to every record logged with a context:
//
//	type ctxKey struct{}
//
//	log := logger.New(logger.FromContextValue(ctxKey{}, "request_id"))
//	log.InfoContext(ctx, "order placed")
//
// Configured loggers come from NewFromConfig:
//
//	log, err := logger.NewFromConfig(logger.Config{
//	    Level:     "debug",
//	    Format:    logger.FormatText,
//	    SentryDSN: os.Getenv("SENTRY_DSN"),
//	}, nil)
//
// Without a DSN, or when Sentry cannot be initialized, records only go to
// the writer. NewNope returns a logger that discards everything.
package logger
