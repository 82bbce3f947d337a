package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// L is the package level logger used across the application.
var L = zap.NewNop().Sugar()

// Set replaces the default logger with the provided one.
func Set(l *zap.SugaredLogger) {
	if l != nil {
		L = l
	}
}

// New builds a logger writing to stderr. level is a zap level name
// (debug, info, warn, error); format is "json" or "console".
func New(level, format string) (*zap.SugaredLogger, error) {
	lvl := zapcore.WarnLevel
	if level != "" {
		if err := lvl.Set(strings.ToLower(level)); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	switch format {
	case "", "console":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, fmt.Errorf("log format %q: want json or console", format)
	}
	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), lvl)
	return zap.New(core).Sugar(), nil
}
