package hive

import (
	"go.uber.org/zap"
)

// Logger is the logging interface hive depends on. It is satisfied
// directly by *zap.SugaredLogger, mirroring the injectable, swappable
// logger shape of FergusInLondon-go-supervise's logger package but backed
// by a real structured logger instead of fmt.Fprintln.
type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
}

// discardLogger is the default Logger: silent, so embedders that don't
// care about hive's internal logging pay nothing for it.
type discardLogger struct{}

func (discardLogger) Debugw(string, ...interface{}) {}
func (discardLogger) Infow(string, ...interface{})  {}
func (discardLogger) Warnw(string, ...interface{})  {}
func (discardLogger) Errorw(string, ...interface{}) {}

// NewZapLogger adapts a *zap.Logger into a Logger, for embedders that
// already have one configured.
func NewZapLogger(l *zap.Logger) Logger {
	return l.Sugar()
}
