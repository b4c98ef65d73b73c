package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ParseLevel accepts "debug", "info", "warn" or "error" in any case. Empty
// input means info.
func ParseLevel(raw string) (zap.AtomicLevel, error) {
	if raw == "" {
		return zap.NewAtomicLevelAt(zapcore.InfoLevel), nil
	}
	var level zap.AtomicLevel
	if err := level.UnmarshalText([]byte(strings.ToLower(raw))); err != nil {
		return zap.NewAtomicLevelAt(zapcore.InfoLevel), fmt.Errorf("log level %q: %w", raw, err)
	}
	return level, nil
}

// FileCore writes JSON lines to a size-rotated file.
func FileCore(logPath string, level zapcore.LevelEnabler) zapcore.Core {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	writer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    100, // MB
		MaxBackups: 5,
	})
	return zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), writer, level)
}

// NewLogger creates a JSON logger writing only to file.
// If logPath is empty the logger is a no-op. An invalid level is an error.
func NewLogger(logPath, logLevel string) (*zap.SugaredLogger, error) {
	if logPath == "" {
		return zap.NewNop().Sugar(), nil
	}
	level, err := ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	return zap.New(FileCore(logPath, level), zap.AddCaller()).Sugar(), nil
}
