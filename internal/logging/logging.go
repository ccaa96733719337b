// Package logging builds the zap logger shared by every component.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tw93/probe/internal/config"
)

// New builds a logger from config. Terminal output goes to stderr unless
// NoTerminal is set; a file sink is rotated through lumberjack.
func New(cfg config.LoggingConfig) *zap.Logger {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var encCfg zapcore.EncoderConfig
	if cfg.Format == "json" {
		encCfg = zap.NewProductionEncoderConfig()
	} else {
		encCfg = zap.NewDevelopmentEncoderConfig()
	}
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var writers []zapcore.WriteSyncer
	if !cfg.NoTerminal {
		writers = append(writers, zapcore.Lock(os.Stderr))
	}
	if cfg.File != "" {
		writers = append(writers, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
		}))
	}
	if len(writers) == 0 {
		return zap.NewNop()
	}

	var enc zapcore.Encoder
	if cfg.Format == "json" {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.NewMultiWriteSyncer(writers...), zap.NewAtomicLevelAt(level))
	return zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel))
}
