// Package logging provides structured JSONL logging for learnq.
//
// Reports are written to stdout, so log output goes to a rotating file by
// default. Console logging (stderr) is only enabled in debug mode.
//
//	{"level":"info","timestamp":"2024-01-15T10:30:00.000Z","service":"learnq","msg":"turn_dispatched","course":"Data Ethics"}
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string
	// LogDir is the directory for log files
	LogDir string
	// LogFile is the log filename (not full path)
	LogFile string
	// MaxSizeMB is the maximum size in MB before rotation
	MaxSizeMB int
	// MaxBackups is the number of backup files to keep
	MaxBackups int
	// MaxAgeDays is the maximum age in days to retain logs
	MaxAgeDays int
	// EnableConsole enables console output
	EnableConsole bool
	// EnableFile enables file output
	EnableFile bool
	// Console is where console output goes; stderr when nil
	Console io.Writer
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:         "info",
		LogDir:        "logs",
		LogFile:       "learnq.jsonl",
		MaxSizeMB:     10,
		MaxBackups:    5,
		MaxAgeDays:    30,
		EnableConsole: false,
		EnableFile:    true,
	}
}

var (
	globalLogger *zap.Logger
	fileWriter   *lumberjack.Logger
)

// Setup initializes the global logger with the given configuration.
func Setup(cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level, err := parseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	jsonEncoder := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	consoleEncoder := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("15:04:05.000"),
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	var cores []zapcore.Core

	if cfg.EnableFile {
		logPath := filepath.Join(cfg.LogDir, cfg.LogFile)
		if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
			return err
		}

		if fileWriter != nil {
			_ = fileWriter.Close()
		}
		fileWriter = &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}

		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(jsonEncoder),
			zapcore.AddSync(fileWriter),
			level,
		))
	}

	if cfg.EnableConsole {
		out := cfg.Console
		if out == nil {
			out = os.Stderr
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleEncoder),
			zapcore.AddSync(out),
			level,
		))
	}

	if len(cores) == 0 {
		globalLogger = zap.NewNop()
		return nil
	}

	globalLogger = zap.New(zapcore.NewTee(cores...), zap.AddCaller()).With(
		zap.String("service", "learnq"),
		zap.Int("pid", os.Getpid()),
	)

	return nil
}

func parseLevel(level string) (zapcore.Level, error) {
	var l zapcore.Level
	err := l.UnmarshalText([]byte(level))
	return l, err
}

// L returns the global logger. Before Setup it is a no-op logger, so
// packages can log from tests without touching the filesystem.
func L() *zap.Logger {
	if globalLogger == nil {
		return zap.NewNop()
	}
	return globalLogger
}

// With creates a child logger with additional fields.
func With(fields ...zap.Field) *zap.Logger {
	return L().With(fields...)
}

// Sync flushes any buffered log entries and closes the file writer.
func Sync() error {
	var err error
	if globalLogger != nil {
		err = globalLogger.Sync()
	}
	if fileWriter != nil {
		_ = fileWriter.Close()
	}
	return err
}

// Course returns a field for course titles.
func Course(title string) zap.Field {
	return zap.String("course", title)
}

// Instruction returns a field for command instructions.
func Instruction(flag string) zap.Field {
	return zap.String("instruction", flag)
}

// Turn returns a field for the query loop iteration.
func Turn(n int) zap.Field {
	return zap.Int("turn", n)
}

// SessionID returns a field for the interactive session id.
func SessionID(id string) zap.Field {
	return zap.String("session_id", id)
}

// Count returns a field for counts/quantities.
func Count(n int) zap.Field {
	return zap.Int("count", n)
}

// Duration returns a field for time durations.
func Duration(d time.Duration) zap.Field {
	return zap.Duration("duration", d)
}

// Endpoint returns a field for remote URLs.
func Endpoint(url string) zap.Field {
	return zap.String("endpoint", url)
}

// ErrorCode returns a field for learnq error codes.
func ErrorCode(code string) zap.Field {
	return zap.String("error_code", code)
}
