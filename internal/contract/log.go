package contract

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log file rotation settings.
const (
	logMaxSizeMB  = 50
	logMaxBackups = 5
	logMaxAgeDays = 28
)

var (
	loggerMu sync.RWMutex
	logger   = newConsoleLogger(zapcore.InfoLevel)
	logFile  *lumberjack.Logger
)

// encoderConfig is shared by the console and file encoders.
func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func newConsoleLogger(level zapcore.Level) *zap.Logger {
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.Lock(os.Stderr), level)
	return zap.New(core, zap.AddCaller())
}

// InitLogger replaces the process logger. Console output always goes to stderr so
// stdout stays free for results and the MCP stdio protocol. When filePath is set,
// JSON lines are also written to a rotated log file.
func InitLogger(level, filePath string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return ConfigErrorf("invalid log level %q", level)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.Lock(os.Stderr), lvl),
	}

	var rotator *lumberjack.Logger
	if filePath != "" {
		rotator = &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    logMaxSizeMB,
			MaxBackups: logMaxBackups,
			MaxAge:     logMaxAgeDays,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(rotator), lvl))
	}

	loggerMu.Lock()
	defer loggerMu.Unlock()
	if logFile != nil {
		_ = logFile.Close()
	}
	logger = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	logFile = rotator
	return nil
}

// SetLogger swaps the process logger, mainly for tests that observe log output.
func SetLogger(l *zap.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

// Logger returns the process logger.
func Logger() *zap.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// SyncLogger flushes buffered entries and closes the log file. Called in main defer.
func SyncLogger() {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	_ = logger.Sync()
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	Logger().WithOptions(zap.AddCallerSkip(1)).Error(msg, zap.Error(err))
	SyncLogger()
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message.
func LogWarn(msg string, err error) {
	Logger().WithOptions(zap.AddCallerSkip(1)).Warn(msg, zap.Error(err))
}
