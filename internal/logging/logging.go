// Package logging builds the zap logger used by the command line tool.
package logging

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation settings of the log file.
const (
	DefaultMaxSizeMB  = 100
	DefaultMaxBackups = 5
	DefaultMaxAgeDays = 30
)

var ErrInvalidLevel = errors.New("invalid log level")

// Config selects the log format, level and optional rotating file.
type Config struct {
	// Development switches the console to a coloured human readable format at debug level.
	Development bool `yaml:"development"`
	// Level overrides the default level: debug in development, info otherwise.
	Level string `yaml:"level"`
	// File, when set, receives JSON logs as well and is rotated by size.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type Option func(o *options)

type options struct {
	console io.Writer
}

// WithConsole replaces the console output, which defaults to standard error.
func WithConsole(w io.Writer) Option {
	return func(o *options) {
		o.console = w
	}
}

// New builds a logger from cfg. The console and the file share the same level.
func New(cfg Config, opts ...Option) (*zap.Logger, error) {
	o := &options{console: os.Stderr}
	for _, opt := range opts {
		opt(o)
	}

	level, err := cfg.level()
	if err != nil {
		return nil, err
	}

	var consoleEncoder zapcore.Encoder
	if cfg.Development {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		consoleEncoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		consoleEncoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	cores := []zapcore.Core{zapcore.NewCore(consoleEncoder, zapcore.AddSync(o.console), level)}
	if cfg.File != "" {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(cfg.fileWriter()),
			level,
		))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

func (cfg Config) level() (zapcore.Level, error) {
	if cfg.Level == "" {
		if cfg.Development {
			return zapcore.DebugLevel, nil
		}

		return zapcore.InfoLevel, nil
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return level, errors.Wrapf(ErrInvalidLevel, "%q", cfg.Level)
	}

	return level, nil
}

func (cfg Config) fileWriter() *lumberjack.Logger {
	w := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	if w.MaxSize <= 0 {
		w.MaxSize = DefaultMaxSizeMB
	}
	if w.MaxBackups <= 0 {
		w.MaxBackups = DefaultMaxBackups
	}
	if w.MaxAge <= 0 {
		w.MaxAge = DefaultMaxAgeDays
	}

	return w
}
