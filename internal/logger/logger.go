package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Log is the global logger instance
	Log = zap.NewNop()
)

// New builds a logger for the given mode.
// "release" gives JSON output with ISO8601 timestamps, anything else the development console.
func New(mode string) (*zap.Logger, error) {
	var config zap.Config
	if mode == "release" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return config.Build()
}

// InitLogger initializes the global logger for the given mode
func InitLogger(mode string) error {
	l, err := New(mode)
	if err != nil {
		return err
	}
	Log = l
	return nil
}

// Sync flushes any buffered log entries
func Sync() error {
	return Log.Sync()
}
