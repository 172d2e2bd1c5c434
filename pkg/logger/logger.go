// Package logger provides the process-wide logging facility for hostboard.
// It wraps zap with custom levels (including SUCCESS and FAIL), colored
// console output and optional JSON file output with rotation.
//
// Initialize the global logger once at startup:
//
//	logOpts := logger.DefaultOptions()
//	logOpts.ConsoleLevel = logger.DebugLevel
//	logger.Init(logOpts)
//	defer logger.SyncGlobal()
//
// Components derive their own logger via Get().With("component", "...").
package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level defines the log level. Custom levels (SuccessLevel, FailLevel) are
// mapped onto the nearest zap level and rendered distinctively on the console.
type Level int8

const (
	// DebugLevel logs are voluminous and usually disabled in production.
	DebugLevel Level = iota - 1
	// InfoLevel is the default logging priority.
	InfoLevel
	// SuccessLevel marks successful completion of significant operations.
	SuccessLevel
	// WarnLevel flags potential issues that are not yet errors.
	WarnLevel
	// ErrorLevel flags problems that need attention.
	ErrorLevel
	// FailLevel logs a critical failure and exits the process.
	FailLevel
)

// String returns a lowercase string representation of the Level.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case SuccessLevel:
		return "success"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	case FailLevel:
		return "fail"
	default:
		return fmt.Sprintf("level(%d)", l)
	}
}

// CapitalString returns a capitalized string representation of the Level.
func (l Level) CapitalString() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case SuccessLevel:
		return "SUCCESS"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FailLevel:
		return "FAIL"
	default:
		return fmt.Sprintf("LEVEL(%d)", l)
	}
}

// ParseLevel maps a level name onto a Level, defaulting to InfoLevel
// for anything unrecognized.
func ParseLevel(name string) Level {
	switch strings.ToLower(name) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "success":
		return SuccessLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	case "fail", "fatal":
		return FailLevel
	default:
		return InfoLevel
	}
}

// ToZapLevel converts our custom Level to zapcore.Level.
func (l Level) ToZapLevel() zapcore.Level {
	switch l {
	case DebugLevel:
		return zapcore.DebugLevel
	case SuccessLevel:
		return zapcore.InfoLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case FailLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// Options holds configuration for the logger.
type Options struct {
	// ConsoleLevel sets the minimum log level for console output.
	ConsoleLevel Level
	// FileLevel sets the minimum log level for file output.
	FileLevel Level
	// LogFilePath specifies the log file. Required if FileOutput is true.
	LogFilePath string
	// ConsoleOutput enables logging to os.Stdout.
	ConsoleOutput bool
	// FileOutput enables JSON logging to LogFilePath, rotated by lumberjack.
	FileOutput bool
	// ColorConsole enables ANSI colors on the console.
	ColorConsole bool
	// TimestampFormat defines the timestamp layout (default time.RFC3339).
	TimestampFormat string
	// MaxFileSizeMB is the rotation threshold for the log file.
	MaxFileSizeMB int
	// MaxBackups is the number of rotated files kept.
	MaxBackups int
}

// DefaultOptions returns the default logger configuration: INFO+ colored
// console output, file output disabled.
func DefaultOptions() Options {
	return Options{
		ConsoleLevel:    InfoLevel,
		FileLevel:       DebugLevel,
		LogFilePath:     "hostboard.log",
		ConsoleOutput:   true,
		FileOutput:      false,
		ColorConsole:    true,
		TimestampFormat: time.RFC3339,
		MaxFileSizeMB:   50,
		MaxBackups:      3,
	}
}

// Logger wraps zap.SugaredLogger with custom level handling.
type Logger struct {
	*zap.SugaredLogger
	opts Options
}

var (
	globalLogger *Logger
	once         sync.Once
)

// Init initializes the global logger. Subsequent calls are no-ops.
// If initialization fails it falls back to a basic development logger on
// stderr so logging is always available in some form.
func Init(opts Options) {
	once.Do(func() {
		var err error
		globalLogger, err = NewLogger(opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to initialize global logger: %v, falling back to basic console logging\n", err)
			cfg := zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
			l, _ := cfg.Build(zap.AddCallerSkip(1))
			globalLogger = &Logger{SugaredLogger: l.Sugar(), opts: Options{ConsoleOutput: true, ConsoleLevel: InfoLevel}}
		}
	})
}

// Get returns the global logger, initializing it with DefaultOptions if
// Init was never called.
func Get() *Logger {
	if globalLogger == nil {
		Init(DefaultOptions())
	}
	return globalLogger
}

// NewLogger creates a standalone Logger instance from the given options.
func NewLogger(opts Options) (*Logger, error) {
	if opts.TimestampFormat == "" {
		opts.TimestampFormat = time.RFC3339
	}

	var cores []zapcore.Core

	if opts.ConsoleOutput {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(opts.TimestampFormat)
		encCfg.TimeKey = "time"
		encCfg.LevelKey = ""
		encCfg.CallerKey = ""
		encCfg.MessageKey = "msg"

		enc := newConsoleEncoder(encCfg, opts.ColorConsole)
		enabler := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return lvl >= opts.ConsoleLevel.ToZapLevel()
		})
		cores = append(cores, zapcore.NewCore(enc, zapcore.Lock(os.Stdout), enabler))
	}

	if opts.FileOutput {
		if opts.LogFilePath == "" {
			return nil, fmt.Errorf("log file path cannot be empty when file output is enabled")
		}
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(opts.TimestampFormat)
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.LogFilePath,
			MaxSize:    opts.MaxFileSizeMB,
			MaxBackups: opts.MaxBackups,
		})
		enabler := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return lvl >= opts.FileLevel.ToZapLevel()
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), fileWriter, enabler))
	}

	if len(cores) == 0 {
		return &Logger{SugaredLogger: zap.NewNop().Sugar(), opts: opts}, nil
	}

	zapLogger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	return &Logger{SugaredLogger: zapLogger.Sugar(), opts: opts}, nil
}

func (l *Logger) log(level Level, template string, args ...interface{}) {
	if l == nil || l.SugaredLogger == nil {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", level.CapitalString(), fmt.Sprintf(template, args...))
		if level == FailLevel {
			os.Exit(1)
		}
		return
	}
	msg := fmt.Sprintf(template, args...)
	field := zap.String("customlevel", level.CapitalString())
	s := l.SugaredLogger.WithOptions(zap.AddCallerSkip(1))
	switch level {
	case DebugLevel:
		s.Debugw(msg, field)
	case SuccessLevel:
		s.Infow(msg, field)
	case WarnLevel:
		s.Warnw(msg, field)
	case ErrorLevel:
		s.Errorw(msg, field)
	case FailLevel:
		s.Fatalw(msg, field)
	default:
		s.Infow(msg, field)
	}
}

// Debugf logs a message at DebugLevel.
func (l *Logger) Debugf(template string, args ...interface{}) { l.log(DebugLevel, template, args...) }

// Infof logs a message at InfoLevel.
func (l *Logger) Infof(template string, args ...interface{}) { l.log(InfoLevel, template, args...) }

// Successf logs a message at SuccessLevel, displayed distinctively on the console.
func (l *Logger) Successf(template string, args ...interface{}) {
	l.log(SuccessLevel, template, args...)
}

// Warnf logs a message at WarnLevel.
func (l *Logger) Warnf(template string, args ...interface{}) { l.log(WarnLevel, template, args...) }

// Errorf logs a message at ErrorLevel.
func (l *Logger) Errorf(template string, args ...interface{}) { l.log(ErrorLevel, template, args...) }

// Failf logs a message at FailLevel and exits the process.
func (l *Logger) Failf(template string, args ...interface{}) { l.log(FailLevel, template, args...) }

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	if l == nil || l.SugaredLogger == nil {
		return nil
	}
	return l.SugaredLogger.Sync()
}

// With returns a child logger with the given structured context attached.
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(args...), opts: l.opts}
}

// Package-level helpers operating on the global logger.

// Debug logs a message at DebugLevel using the global logger.
func Debug(template string, args ...interface{}) { Get().log(DebugLevel, template, args...) }

// Info logs a message at InfoLevel using the global logger.
func Info(template string, args ...interface{}) { Get().log(InfoLevel, template, args...) }

// Success logs a message at SuccessLevel using the global logger.
func Success(template string, args ...interface{}) { Get().log(SuccessLevel, template, args...) }

// Warn logs a message at WarnLevel using the global logger.
func Warn(template string, args ...interface{}) { Get().log(WarnLevel, template, args...) }

// Error logs a message at ErrorLevel using the global logger.
func Error(template string, args ...interface{}) { Get().log(ErrorLevel, template, args...) }

// Fail logs a message at FailLevel then exits using the global logger.
func Fail(template string, args ...interface{}) { Get().log(FailLevel, template, args...) }

// SyncGlobal flushes the global logger before process exit.
func SyncGlobal() error { return Get().Sync() }
