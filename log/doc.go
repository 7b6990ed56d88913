// Package log is a small structured logging layer over [log/slog].
//
// A [Logger] is an immutable value: configuration is applied when it is made
// with [Make] and can be refined with [Logger.Wrap] or extended with
// attributes using [Logger.With]. Each derived logger gets its own handler,
// so loggers can be handed to concurrent renderers without coordination.
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText))
//
//	logger.Debug("partial compiled", slog.String("name", "header"))
//
// Besides the [slog] levels there is a [LevelTrace] for very chatty
// diagnostics such as cache hits.
//
// Package-level functions ([Info], [Error], ...) write through a default
// logger that is adjusted with [Config].
package log
