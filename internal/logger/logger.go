package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger struct {
	atomicLevel zap.AtomicLevel
	logger      *zap.Logger
	file        *lumberjack.Logger
	mu          sync.RWMutex
}

// FileOptions configures the rotated JSON log file
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var (
	instance *Logger   //nolint:gochecknoglobals // Singleton pattern for logger
	once     sync.Once //nolint:gochecknoglobals // Singleton pattern for logger
)

func get() *Logger {
	once.Do(func() {
		instance = &Logger{
			atomicLevel: zap.NewAtomicLevelAt(zap.InfoLevel),
		}
		instance.logger = zap.New(instance.consoleCore())
	})
	return instance
}

func (l *Logger) consoleCore() zapcore.Core {
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000") // HH:MM:SS.mmm format
	encoderCfg.CallerKey = ""                                           // remove caller
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	return zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(os.Stdout),
		l.atomicLevel,
	)
}

func GetLogger() *zap.Logger {
	l := get()

	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.logger
}

func SetLevel(level zapcore.Level) {
	l := get()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.atomicLevel.SetLevel(level)
}

// ParseLevel converts a configured level name such as "debug" or "warn"
func ParseLevel(name string) (zapcore.Level, error) {
	level, err := zapcore.ParseLevel(name)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

// EnableFile adds a JSON core writing to a rotated file next to the console output.
// Calling it again replaces the previous file.
func EnableFile(opts FileOptions) (*zap.Logger, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("log file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	l := get()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		_ = l.file.Close()
	}
	l.file = &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB, // MB
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays, // days
	}

	fileCfg := zap.NewProductionEncoderConfig()
	fileCfg.TimeKey = "timestamp"
	fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(fileCfg),
		zapcore.AddSync(l.file),
		l.atomicLevel,
	)

	l.logger = zap.New(zapcore.NewTee(l.consoleCore(), fileCore))
	return l.logger, nil
}

// Close flushes buffered entries and releases the log file, if any
func Close() error {
	l := get()

	l.mu.Lock()
	defer l.mu.Unlock()

	_ = l.logger.Sync()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.logger = zap.New(l.consoleCore())
	return err
}
