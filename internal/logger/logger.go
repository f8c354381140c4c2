package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process-wide logger. It is a no-op until Initialize runs so
// packages can log from tests without setup.
var Logger = zap.NewNop().Sugar()

// Initialize replaces Logger. Output always goes to stderr; stdout carries
// the triage result.
func Initialize(level string, jsonOutput bool) error {
	zapLevel, err := parseLevel(level)
	if err != nil {
		return err
	}

	var encoder zapcore.Encoder
	if jsonOutput {
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "time"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(cfg)
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		encoder = zapcore.NewConsoleEncoder(cfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zap.NewAtomicLevelAt(zapLevel))
	Logger = zap.New(core).Sugar()
	return nil
}

func parseLevel(level string) (zapcore.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel, err
	}
	return l, nil
}

// Sync flushes buffered log entries. Errors from syncing stderr are ignored.
func Sync() {
	_ = Logger.Sync()
}
