// Package logging provides structured logging utilities for bundle cache components.
//
// # Overview
//
// This package wraps the standard library slog package with project-specific defaults
// and conventions for consistent logging across all components. It supports
// environment-based log level configuration, module/version context injection,
// and automatic source location tracking for debug logs.
//
// # Features
//
//   - Structured JSON logging to stderr
//   - Environment-based log level configuration (LOG_LEVEL)
//   - Automatic module and version context
//   - Source location tracking for debug logs
//   - Flexible log level parsing
//   - Integration with standard library log package
//
// # Log Levels
//
// Supported log levels (case-insensitive):
//   - DEBUG: Detailed diagnostic information with source location
//   - INFO: General informational messages (default)
//   - WARN/WARNING: Warning messages for potentially problematic situations
//   - ERROR: Error messages for failures requiring attention
//
// # Usage
//
// Setting the default logger (recommended):
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("bundled", "v1.0.0")
//	    defer slog.Info("application started")
//
//	    // Use slog as normal
//	    slog.Info("processing request", "id", "req-123")
//	    slog.Debug("detailed state", "data", complexObject)
//	    slog.Error("operation failed", "error", err)
//	}
//
// Creating a custom logger:
//
//	logger := logging.NewStructuredLogger("bundled", "v2.0.0", "debug")
//	logger.Info("server starting", "port", 8080)
//
// Setting explicit log level:
//
//	logging.SetDefaultStructuredLoggerWithLevel("bundlectl", "v1.0.0", "warn")
//
// Converting standard library logger:
//
//	stdLogger := logging.NewLogLogger(slog.LevelInfo, false)
//	stdLogger.Println("legacy log message")
//
// # Environment Configuration
//
// The LOG_LEVEL environment variable controls logging verbosity:
//
//	LOG_LEVEL=debug bundlectl get characters hero.yaml
//	LOG_LEVEL=error bundled
//
// If LOG_LEVEL is not set, defaults to INFO level.
//
// # Output Format
//
// All logs are written to stderr in JSON format:
//
//	{
//	    "time": "2025-01-15T10:30:00.123Z",
//	    "level": "INFO",
//	    "msg": "manifest loaded",
//	    "module": "bundled",
//	    "version": "v1.0.0",
//	    "bundles": 42
//	}
//
// Debug logs include source location:
//
//	{
//	    "time": "2025-01-15T10:30:00.123Z",
//	    "level": "DEBUG",
//	    "source": {
//	        "function": "bundle.(*Record).load",
//	        "file": "record.go",
//	        "line": 45
//	    },
//	    "msg": "bundle loaded",
//	    "module": "bundled",
//	    "version": "v1.0.0"
//	}
//
// # Best Practices
//
// 1. Set default logger early in main():
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("myapp", version)
//	    defer slog.Info("application started")
//	    // ...
//	}
//
// 2. Include context in log messages:
//
//	slog.Info("bundle loaded",
//	    "bundle", name,
//	    "location", location,
//	    "duration", time.Since(start),
//	)
//
// 3. Use appropriate log levels:
//
//	slog.Debug("bundle refcount", "refCount", n) // Development/troubleshooting
//	slog.Info("manifest loaded")                 // Normal operations
//	slog.Warn("unbalanced unload ignored")       // Potential issues
//	slog.Error("bundle load failed")             // Errors requiring action
//
// 4. Log errors with context:
//
//	slog.Error("bundle load failed",
//	    "error", err,
//	    "bundle", name,
//	    "location", location,
//	)
//
// # Integration
//
// This package is used by:
//   - pkg/api - daemon logging
//   - pkg/cli - CLI command logging
//   - pkg/bundle - load/unload and refcount logging
//   - pkg/server - request logging
//
// All components share consistent logging format and configuration.
package logging
