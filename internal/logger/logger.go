// internal/logger/logger.go
//
// Structured JSON logger (Zap + Lumberjack).
//
// Context
// -------
// storehub writes lifecycle, routing, and cache events to one JSON log
// per day under `<dir>/YYYY-MM-DD.log`.  When running in an interactive
// TTY we tee the same events to stdout through a console encoder.
// Rotation, compression, and retention are handled by Lumberjack; no
// external log-rotate job is required.
//
// Usage
// -----
//
//	log, err := logger.New(logger.Options{Dir: dir, Level: "info", Tee: tty})
//	if err != nil { … }
//	log.Info("tenant online", zap.String("host", host))
//
// Notes
// -----
// • Zap core uses ISO-8601 timestamps and lowercase levels.
// • Errors are written to the same sink via `ErrorOutput`.
// • Per-request cache events are Debug; raise the level to see them.
package logger

import (
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the sink and verbosity.
type Options struct {
	Dir   string // created if missing
	Level string // debug | info | warn | error; empty means info
	Tee   bool   // also write to stdout
}

// New returns a *zap.Logger that writes JSON to <Dir>/YYYY-MM-DD.log.  The
// logger is installed as the process-wide default via zap.ReplaceGlobals.
func New(o Options) (*zap.Logger, error) {
	if err := os.MkdirAll(o.Dir, 0o755); err != nil {
		return nil, err
	}
	level, err := zapcore.ParseLevel(o.Level)
	if err != nil {
		return nil, err
	}

	fileName := time.Now().Format("2006-01-02") + ".log"
	fileSink := &lumberjack.Logger{
		Filename:   filepath.Join(o.Dir, fileName),
		MaxSize:    50, // MB
		MaxBackups: 7,  // keep last seven files
		MaxAge:     14, // days
		Compress:   true,
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(fileSink), level),
	}
	if o.Tee {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig()),
			zapcore.Lock(os.Stdout),
			level,
		))
	}

	z := zap.New(
		zapcore.NewTee(cores...),
		zap.ErrorOutput(zapcore.AddSync(fileSink)),
		zap.AddCaller(),
	)

	// Make this the global logger so zap.L() and zap.S() work everywhere.
	zap.ReplaceGlobals(z)

	z.Info("logger online", zap.Bool("tee", o.Tee), zap.Stringer("level", level))
	return z, nil
}

// Bootstrap installs a console logger for the window before config is
// loaded, so early failures in the loader are visible.
func Bootstrap() *zap.Logger {
	z := zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig()),
		zapcore.Lock(os.Stderr),
		zap.InfoLevel,
	))
	zap.ReplaceGlobals(z)
	return z
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		CallerKey:      "caller",
		StacktraceKey:  "stack",
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}
