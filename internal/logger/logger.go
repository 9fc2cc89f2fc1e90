package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the different logging levels
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARNING
	ERROR
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARNING:
		return "WARNING"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case WARNING:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Format selects the encoder used for log lines
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// Logger wraps a zap logger behind the leveled printf-style API
type Logger struct {
	level zap.AtomicLevel
	base  *zap.Logger
	sugar *zap.SugaredLogger
}

var (
	globalLogger *Logger
	mu           sync.RWMutex
)

// Init initializes the global logger with the specified level and output
func Init(level LogLevel, output io.Writer) {
	InitWithFormat(level, output, FormatConsole)
}

// InitWithFormat initializes the global logger with an explicit encoder
func InitWithFormat(level LogLevel, output io.Writer, format Format) {
	if output == nil {
		output = os.Stdout
	}

	mu.Lock()
	globalLogger = New(level, output, format)
	mu.Unlock()
}

// New builds a standalone Logger
func New(level LogLevel, output io.Writer, format Format) *Logger {
	atom := zap.NewAtomicLevelAt(level.zapLevel())

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if format == FormatJSON {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(output), atom)
	base := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2))

	return &Logger{
		level: atom,
		base:  base,
		sugar: base.Sugar(),
	}
}

// FromZap wraps an existing zap logger, e.g. one built by zaptest
func FromZap(z *zap.Logger, level LogLevel) *Logger {
	atom := zap.NewAtomicLevelAt(level.zapLevel())
	base := z.WithOptions(zap.IncreaseLevel(atom), zap.AddCallerSkip(2))
	return &Logger{level: atom, base: base, sugar: base.Sugar()}
}

// Use installs l as the global logger
func Use(l *Logger) {
	mu.Lock()
	globalLogger = l
	mu.Unlock()
}

// ParseLogLevel parses a string log level and returns the corresponding LogLevel
func ParseLogLevel(level string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARNING", "WARN":
		return WARNING
	case "ERROR":
		return ERROR
	default:
		return INFO // Default to INFO level
	}
}

// GetLogger returns the global logger instance
func GetLogger() *Logger {
	mu.RLock()
	l := globalLogger
	mu.RUnlock()
	if l != nil {
		return l
	}

	// Initialize with default INFO level if not initialized
	Init(INFO, os.Stdout)
	mu.RLock()
	defer mu.RUnlock()
	return globalLogger
}

// Zap returns the global structured logger for components that log fields
func Zap() *zap.Logger {
	return GetLogger().base.WithOptions(zap.AddCallerSkip(-2))
}

// SetLevel changes the log level of the global logger
func SetLevel(level LogLevel) {
	GetLogger().level.SetLevel(level.zapLevel())
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	l.sugar.Debugf(format, v...)
}

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, v ...interface{}) {
	l.sugar.Warnf(format, v...)
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	l.sugar.Errorf(format, v...)
}

// Fatal logs an error message and exits the program
func (l *Logger) Fatal(format string, v ...interface{}) {
	l.sugar.Fatalf(format, v...)
}

// Sync flushes buffered log entries
func (l *Logger) Sync() error {
	return l.base.Sync()
}

// Global convenience functions
func Debug(format string, v ...interface{}) {
	GetLogger().Debug(format, v...)
}

func Info(format string, v ...interface{}) {
	GetLogger().Info(format, v...)
}

func Warning(format string, v ...interface{}) {
	GetLogger().Warning(format, v...)
}

func Error(format string, v ...interface{}) {
	GetLogger().Error(format, v...)
}

func Fatal(format string, v ...interface{}) {
	GetLogger().Fatal(format, v...)
}

// Sync flushes the global logger
func Sync() error {
	return GetLogger().Sync()
}

// GetLevel returns the current log level
func GetLevel() LogLevel {
	switch GetLogger().level.Level() {
	case zapcore.DebugLevel:
		return DEBUG
	case zapcore.WarnLevel:
		return WARNING
	case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return ERROR
	default:
		return INFO
	}
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return GetLevel() <= DEBUG
}

// IsInfoEnabled returns true if info logging is enabled
func IsInfoEnabled() bool {
	return GetLevel() <= INFO
}

// IsWarningEnabled returns true if warning logging is enabled
func IsWarningEnabled() bool {
	return GetLevel() <= WARNING
}

// IsErrorEnabled returns true if error logging is enabled
func IsErrorEnabled() bool {
	return GetLevel() <= ERROR
}
