package logger

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func ProvideLoggerMiddleware() *Middleware { return New(NewAccessLog("http-access.log")) }
func ProvideLogger() *zap.Logger           { return NewSystemLog() }

// NewSystemLog is the application log.
func NewSystemLog() *zap.Logger { return NewLog("system.log") }

var Module = fx.Options(
	fx.Provide(ProvideLoggerMiddleware),
	fx.Provide(ProvideLogger),
)
