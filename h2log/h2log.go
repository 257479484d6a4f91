// Package h2log wraps go.uber.org/zap for the engine's structured logging,
// with optional file rotation via lumberjack, grounded on the logging
// setup used elsewhere in the dependency pack.
package h2log

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures a Logger.
type Options struct {
	Stdout     bool
	Level      string // "debug", "info", "warn", "error"
	Filename   string
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
}

// Logger is a thin wrapper over *zap.Logger giving the engine a small,
// stable field-construction surface (h2log.Err, h2log.Stream, ...) instead
// of depending on zap's API shape directly everywhere it logs.
type Logger struct {
	z *zap.Logger
}

func toZapLevel(l string) zapcore.Level {
	switch l {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New builds a Logger per opt.
func New(opt Options) *Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.UTC().Format("2006-01-02T15:04:05.000Z"))
	}
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewConsoleEncoder(encCfg)

	var w zapcore.WriteSyncer
	if opt.Stdout || opt.Filename == "" {
		w = zapcore.AddSync(os.Stdout)
	} else {
		os.MkdirAll(filepath.Dir(opt.Filename), 0o755)
		w = zapcore.AddSync(&lumberjack.Logger{
			Filename:   opt.Filename,
			MaxSize:    opt.MaxSizeMB,
			MaxBackups: opt.MaxBackups,
			MaxAge:     opt.MaxAgeDays,
			LocalTime:  true,
		})
	}

	core := zapcore.NewCore(encoder, w, toZapLevel(opt.Level))
	return &Logger{z: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))}
}

// NewNop returns a Logger that discards everything, for tests.
func NewNop() *Logger { return &Logger{z: zap.NewNop()} }

func (l *Logger) Debug(msg string, fields ...zap.Field) { l.z.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...zap.Field)  { l.z.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...zap.Field)  { l.z.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...zap.Field) { l.z.Error(msg, fields...) }

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error { return l.z.Sync() }

// Err, Stream and FrameType are the field constructors the h2 package reaches
// for most often, kept here so call sites read h2log.Err(e) instead of
// importing zap directly.
func Err(err error) zap.Field           { return zap.Error(err) }
func Stream(id uint32) zap.Field        { return zap.Uint32("stream", id) }
func FrameType(t string) zap.Field      { return zap.String("frame", t) }
