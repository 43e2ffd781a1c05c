// Package logging builds the zap loggers used by the binaries.
package logging

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls where logs go.
// When File is set, info and error logs are also written to
// File+".info.log" and File+".error.log", rotated by lumberjack.
type Options struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// New builds a logger and installs it as zap's global logger.
func New(opts Options) (*zap.Logger, error) {
	if opts.Level == "" {
		opts.Level = "info"
	}
	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", opts.Level, err)
	}

	// Console encoding for every sink.
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	consoleEncoder := zapcore.NewConsoleEncoder(cfg)

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), level),
	}

	if opts.File != "" {
		infoFileWriter := zapcore.AddSync(rotating(opts, opts.File+".info.log"))
		errorFileWriter := zapcore.AddSync(rotating(opts, opts.File+".error.log"))
		infoLevel := level
		if infoLevel < zapcore.InfoLevel {
			infoLevel = zapcore.InfoLevel
		}
		cores = append(cores,
			zapcore.NewCore(consoleEncoder, infoFileWriter, infoLevel),
			zapcore.NewCore(consoleEncoder, errorFileWriter, zapcore.ErrorLevel),
		)
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func rotating(opts Options, filename string) *lumberjack.Logger {
	maxSize := opts.MaxSizeMB
	if maxSize == 0 {
		maxSize = 100
	}
	return &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    maxSize, // megabytes
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays, // days
		Compress:   opts.Compress,
	}
}

// RaftLogger adapts logger for hashicorp/raft, which logs through hclog.
// Lines are forwarded to a named child of logger.
func RaftLogger(logger *zap.Logger, level string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:        "raft",
		Level:       hclog.LevelFromString(level),
		Output:      zap.NewStdLog(logger.Named("raft")).Writer(),
		DisableTime: true,
	})
}
