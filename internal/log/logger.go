package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.SugaredLogger

// Options controls logger construction
type Options struct {
	// Debug enables logging; otherwise a no-op logger is installed
	Debug bool
	// JSON switches the debug logger from console to JSON lines, used when
	// stdout carries machine-readable output
	JSON bool
}

// InitLogger installs the global zap logger. Logs always go to stderr.
func InitLogger(opts Options) {
	l := zap.NewNop()

	if opts.Debug {
		config := zap.NewDevelopmentConfig()
		config.DisableStacktrace = true
		config.OutputPaths = []string{"stderr"}
		if opts.JSON {
			config.Encoding = "json"
			config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		} else {
			config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
			config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		}

		built, err := config.Build()
		if err != nil {
			panic(err)
		}
		l = built
	}

	zap.ReplaceGlobals(l)
	zap.RedirectStdLog(l)
	logger = l.Sugar()
}

// GetLogger returns the global sugared logger
func GetLogger() *zap.SugaredLogger {
	if logger == nil {
		InitLogger(Options{})
	}
	return logger
}

// Sync flushes buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
