package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const logDir = "log"

func ensureLogDir() string {
	_ = os.MkdirAll(logDir, 0o755)
	return logDir
}

// NewLog returns a JSON logger writing to stdout and a rotated file log/<n>.
func NewLog(n string) *zap.Logger {
	return newLog(n, zap.NewProductionEncoderConfig())
}

// NewAccessLog is NewLog without the message field; access lines are all
// structured fields.
func NewAccessLog(n string) *zap.Logger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.MessageKey = zapcore.OmitKey
	return newLog(n, cfg)
}

func newLog(n string, cfg zapcore.EncoderConfig) *zap.Logger {
	dir := ensureLogDir()

	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(dir, n),
		MaxSize:    50, // MB
		MaxBackups: 3,
		MaxAge:     7, // days
	})
	console := zapcore.Lock(os.Stdout)

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(cfg), w, zap.InfoLevel),
		zapcore.NewCore(zapcore.NewJSONEncoder(cfg), console, zap.InfoLevel),
	)
	return zap.New(core)
}
