// Package logger builds the zap loggers used by the fsmx binaries.
package logger

import (
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the logging level.
type LogLevel string

// LogFormat represents the logging format.
type LogFormat string

const (
	DebugLevel LogLevel = "DEBUG"
	InfoLevel  LogLevel = "INFO"
	WarnLevel  LogLevel = "WARN"
	ErrorLevel LogLevel = "ERROR"
	// ProductionLevel is an alias for InfoLevel, used for easier configuration.
	ProductionLevel LogLevel = "PRODUCTION"

	// FormatConsole indicates human-readable console format.
	FormatConsole LogFormat = "CONSOLE"
	// FormatJSON indicates structured JSON format.
	FormatJSON LogFormat = "JSON"
)

var (
	initOnce    sync.Once
	initialized bool
	initMu      sync.Mutex
)

// ParseLevel converts a level name to zapcore.Level. Unknown names map to Info.
func ParseLevel(level string) zapcore.Level {
	switch LogLevel(strings.ToUpper(level)) {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseFormat returns the format named by format, or FormatConsole.
func ParseFormat(format string) LogFormat {
	if f := LogFormat(strings.ToUpper(format)); f == FormatJSON {
		return f
	}
	return FormatConsole
}

// timeEncoder encodes the time as a human-readable timestamp.
func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05 MST"))
}

// New creates a new zap logger writing to stdout.
func New(level string, format LogFormat) *zap.Logger {
	return NewWithSink(level, format, zapcore.AddSync(os.Stdout))
}

// NewWithSink creates a new zap logger writing to sink.
func NewWithSink(level string, format LogFormat, sink zapcore.WriteSyncer) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "component",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if format == FormatJSON {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderConfig.EncodeTime = timeEncoder
		encoderConfig.ConsoleSeparator = " | "
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, sink, zap.NewAtomicLevelAt(ParseLevel(level)))
	return zap.New(core, zap.AddCaller())
}

// Setup builds a logger and installs it with zap.ReplaceGlobals.
func Setup(level string, format LogFormat) *zap.Logger {
	initMu.Lock()
	defer initMu.Unlock()

	logger := New(level, format)
	zap.ReplaceGlobals(logger)
	initialized = true

	logger.Debug("Logger initialized",
		zap.String("level", level),
		zap.String("format", string(format)))
	return logger
}

// Initialize sets up the global logger from LOGGING_LEVEL and LOGGING_FORMAT
// unless Setup already ran.
func Initialize() {
	initOnce.Do(func() {
		initMu.Lock()
		done := initialized
		initMu.Unlock()
		if done {
			return
		}
		Setup(getEnv("LOGGING_LEVEL", string(ProductionLevel)), ParseFormat(getEnv("LOGGING_FORMAT", string(FormatConsole))))
	})
}

// GetLogger returns the global logger, initializing it if needed.
func GetLogger() *zap.Logger {
	Initialize()
	return zap.L()
}

// For creates a named logger for a specific component.
func For(component string) *zap.Logger {
	return GetLogger().Named(component)
}

// Sync flushes any buffered log entries.
func Sync() error {
	return zap.L().Sync()
}

// getEnv gets environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
