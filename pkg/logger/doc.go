// Package logger provides the structured logging interface used across
// save-from-inst.
//
// It wraps zerolog behind a small Logger interface so packages can accept a
// logger, attach fields, and be tested with TestLogger or NewNopLogger.
//
//	logger.Initialize(&cfg.Logging)
//	logger.WithField("url", postURL).Info("Fetching post page")
//
// Console output goes to stderr with colored levels. When a log file is
// configured, output goes to that file only, which is what the interactive
// shell relies on to keep the terminal clear.
package logger
