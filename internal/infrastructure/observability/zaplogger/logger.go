package zaplogger

import (
	"os"

	"github.com/Zhima-Mochi/vending-machine/internal/observability"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls the zap core. File is optional; when set, logs are also
// written to a size-rotated file.
type Options struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type Logger struct{ l *zap.Logger }

var _ observability.Logger = (*Logger)(nil)

// New builds a JSON logger writing to stdout with the given fixed fields.
func New(opts Options, fixed ...observability.Field) (*Logger, error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, err
		}
		level.SetLevel(parsed)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.MessageKey = "msg"
	encCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	encCfg.EncodeLevel = zapcore.LowercaseLevelEncoder

	sinks := []zapcore.WriteSyncer{zapcore.Lock(os.Stdout)}
	if opts.File != "" {
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 50),
			MaxBackups: orDefault(opts.MaxBackups, 3),
			MaxAge:     orDefault(opts.MaxAgeDays, 7),
		}))
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.NewMultiWriteSyncer(sinks...), level)
	l := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	if len(fixed) > 0 {
		l = l.With(toZapFields(fixed)...)
	}
	return &Logger{l: l}, nil
}

// NewFromZap adapts an existing zap logger, e.g. zaptest or zap.NewNop in tests.
func NewFromZap(l *zap.Logger) *Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return &Logger{l: l}
}

func (z *Logger) With(fields ...observability.Field) observability.Logger {
	if len(fields) == 0 {
		return z
	}
	return &Logger{l: z.l.With(toZapFields(fields)...)}
}

func (z *Logger) Debug(msg string, fields ...observability.Field) {
	z.l.Debug(msg, toZapFields(fields)...)
}
func (z *Logger) Info(msg string, fields ...observability.Field) {
	z.l.Info(msg, toZapFields(fields)...)
}
func (z *Logger) Warn(msg string, fields ...observability.Field) {
	z.l.Warn(msg, toZapFields(fields)...)
}
func (z *Logger) Error(msg string, fields ...observability.Field) {
	z.l.Error(msg, toZapFields(fields)...)
}

// Zap exposes the underlying logger for zap.ReplaceGlobals.
func (z *Logger) Zap() *zap.Logger { return z.l }

// Sync flushes any buffered log entries. Safe to call on shutdown.
func (z *Logger) Sync() error {
	return z.l.Sync()
}

func toZapFields(fs []observability.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fs))
	for _, f := range fs {
		if err, ok := f.Value.(error); ok {
			out = append(out, zap.NamedError(f.Key, err))
			continue
		}
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
