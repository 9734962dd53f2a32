package di

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the container logger writing to stderr.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	return NewLoggerWithOutput(cfg, zapcore.Lock(os.Stderr))
}

// NewLoggerWithOutput builds a logger writing to output. JSON selects the
// JSON encoder, otherwise entries are written as console lines.
func NewLoggerWithOutput(cfg LogConfig, output zapcore.WriteSyncer) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		level = parsed
	}

	econf := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "time",
		NameKey:        "logger",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	var encoder zapcore.Encoder
	if cfg.JSON {
		encoder = zapcore.NewJSONEncoder(econf)
	} else {
		encoder = zapcore.NewConsoleEncoder(econf)
	}
	return zap.New(zapcore.NewCore(encoder, output, level)), nil
}
