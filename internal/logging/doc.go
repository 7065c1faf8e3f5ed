// Package logging builds the zap loggers used across cnotify.
package logging
