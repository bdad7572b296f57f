package logger

// Package-level convenience functions delegating to the global logger.

// Debug logs a debug message using the global logger
func Debug(msg string) {
	GetLogger().Debug(msg)
}

// Info logs an info message using the global logger
func Info(msg string) {
	GetLogger().Info(msg)
}

// Warn logs a warning message using the global logger
func Warn(msg string) {
	GetLogger().Warn(msg)
}

// Error logs an error message using the global logger
func Error(msg string) {
	GetLogger().Error(msg)
}

// WithField returns the global logger with an additional field
func WithField(key string, value interface{}) Logger {
	return GetLogger().WithField(key, value)
}

// WithFields returns the global logger with additional fields
func WithFields(fields map[string]interface{}) Logger {
	return GetLogger().WithFields(fields)
}

// WithError returns the global logger with an error attached
func WithError(err error) Logger {
	return GetLogger().WithError(err)
}
