// Package logger wraps a process-wide zap logger
package logger

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type (
	// Config controls where and how much the logger writes
	Config struct {
		LogFile   string `yaml:"log_file" env:"LOG_FILE"`
		LogLevel  string `yaml:"log_level" env:"LOG_LEVEL"`
		AppName   string `yaml:"app_name" env:"APP_NAME"`
		AddCaller bool   `yaml:"add_caller" env:"LOG_ADD_CALLER"`
	}

	// Logger is passed to every component that logs
	Logger struct {
		*zap.Logger
	}
)

var (
	global *Logger
	mu     sync.RWMutex
)

// Init builds the global logger. Output goes to stdout as console text and,
// when LogFile is set, to that file as JSON.
func Init(cfg Config) error {
	level := zapcore.InfoLevel
	if cfg.LogLevel != "" {
		if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return fmt.Errorf("parse log level %q: %w", cfg.LogLevel, err)
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stdout), level),
	}

	if cfg.LogFile != "" {
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), level))
	}

	opts := []zap.Option{}
	if cfg.AddCaller {
		opts = append(opts, zap.AddCaller())
	}

	zl := zap.New(zapcore.NewTee(cores...), opts...)
	if cfg.AppName != "" {
		zl = zl.With(zap.String("app", cfg.AppName))
	}

	mu.Lock()
	global = &Logger{Logger: zl}
	mu.Unlock()

	return nil
}

// Get returns the global logger, or a no-op logger before Init
func Get() *Logger {
	mu.RLock()
	defer mu.RUnlock()

	if global == nil {
		return &Logger{Logger: zap.NewNop()}
	}
	return global
}

// Sync flushes buffered entries
func Sync() {
	_ = Get().Sync()
}

// Named returns a child logger for a component
func (l *Logger) Named(name string) *Logger {
	return &Logger{Logger: l.Logger.Named(name)}
}
