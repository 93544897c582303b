// Package obslog carries the structured logger this module's components
// log through. Grounded on the zap usage in m3db's seek_manager.go: a
// *zap.Logger field threaded down through constructors, never a package
// global, fields attached with zap.String/zap.Int/zap.Error.
package obslog

import "go.uber.org/zap"

// Logger is the handle every constructor in this module accepts.
type Logger struct {
	z *zap.Logger
}

// Nop returns a Logger that discards everything; the default when a
// caller does not supply one.
func Nop() *Logger { return &Logger{z: zap.NewNop()} }

// Wrap adapts an existing *zap.Logger. A nil input yields a Nop logger.
func Wrap(z *zap.Logger) *Logger {
	if z == nil {
		return Nop()
	}
	return &Logger{z: z}
}

// With returns a child logger with a component field set, mirroring
// GetTracer(component) in abiolaogu-MinIO's tracing package.
func (l *Logger) With(component string) *Logger {
	return &Logger{z: l.z.With(zap.String("component", component))}
}

func (l *Logger) Debug(msg string, fields ...zap.Field) { l.z.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...zap.Field)  { l.z.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...zap.Field)  { l.z.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...zap.Field) { l.z.Error(msg, fields...) }

// Field re-exports are intentionally omitted: callers use zap.String,
// zap.Int, zap.Error, etc. directly, the same as the grounding example.
