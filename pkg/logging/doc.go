// Package logging provides structured logging setup for cephsnap.
//
// # Overview
//
// The package wraps log/slog with the defaults every command shares: JSON
// records on stderr, a module and version attribute on each record, a level
// taken from the --log-level flag or the LOG_LEVEL environment variable, and
// source locations when running at debug level.
//
// # Log Levels
//
// Supported levels (case-insensitive): DEBUG, INFO (default), WARN/WARNING,
// ERROR. Anything else is treated as INFO.
//
// # Usage
//
//	func main() {
//	    logging.SetDefaultStructuredLoggerWithLevel("cephsnap", version, "info")
//	    slog.Info("collection starting", slog.Int("pool_size", 64))
//	}
//
// A dedicated logger:
//
//	logger := logging.NewStructuredLogger("cephsnap", "v1.0.0", "debug")
//	logger.Debug("job started", slog.String("collector", "ceph"))
//
// # Output Format
//
//	{
//	    "time": "2025-01-15T10:30:00.123Z",
//	    "level": "INFO",
//	    "msg": "collection complete",
//	    "module": "cephsnap",
//	    "version": "v1.0.0",
//	    "jobs": 42
//	}
//
// Failed remote commands are logged at WARN with the host and command, failed
// jobs at ERROR; both are recoverable and the run continues.
package logging
