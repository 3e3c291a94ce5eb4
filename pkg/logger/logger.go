package logger

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

var log *zap.Logger
var atom zap.AtomicLevel

var bufferPool = buffer.NewPool()

func init() {
	atom = zap.NewAtomicLevel()
	atom.SetLevel(zapcore.InfoLevel)

	log = newLogger(os.Stdout)
}

func newLogger(w io.Writer) *zap.Logger {
	encoderCfg := zapcore.EncoderConfig{
		MessageKey:       "msg",
		LevelKey:         "lvl",
		NameKey:          zapcore.OmitKey,
		TimeKey:          "time",
		CallerKey:        zapcore.OmitKey,
		FunctionKey:      zapcore.OmitKey,
		StacktraceKey:    zapcore.OmitKey,
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}

	core := zapcore.NewCore(
		NewKVEncoder(encoderCfg),
		zapcore.AddSync(w),
		atom,
	)
	return zap.New(core)
}

// kvEncoder writes one line per entry: time, level, message, then key=value pairs.
type kvEncoder struct {
	zapcore.Encoder
	cfg    zapcore.EncoderConfig
	fields []zapcore.Field
}

func NewKVEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return &kvEncoder{
		Encoder: zapcore.NewConsoleEncoder(cfg),
		cfg:     cfg,
	}
}

func (e *kvEncoder) Clone() zapcore.Encoder {
	fields := make([]zapcore.Field, len(e.fields))
	copy(fields, e.fields)
	return &kvEncoder{
		Encoder: e.Encoder.Clone(),
		cfg:     e.cfg,
		fields:  fields,
	}
}

// AddString and friends come from zap's With(); keep them so context fields
// show up on every line.
func (e *kvEncoder) AddString(key, value string) {
	e.fields = append(e.fields, zap.String(key, value))
}

func (e *kvEncoder) AddInt64(key string, value int64) {
	e.fields = append(e.fields, zap.Int64(key, value))
}

func (e *kvEncoder) AddBool(key string, value bool) {
	e.fields = append(e.fields, zap.Bool(key, value))
}

func (e *kvEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	line := bufferPool.Get()

	line.AppendString(ent.Time.Format("2006-01-02T15:04:05.000Z07:00"))
	line.AppendString(" ")
	line.AppendString(ent.Level.CapitalString())
	line.AppendString("    ")

	if ent.Message != "" {
		line.AppendString(ent.Message)
		line.AppendString("  ")
	}

	all := make([]zapcore.Field, 0, len(e.fields)+len(fields))
	all = append(all, e.fields...)
	all = append(all, fields...)

	for i, f := range all {
		if i > 0 {
			line.AppendString(" ")
		}
		line.AppendString(f.Key)
		line.AppendString("=")
		line.AppendString(fieldValue(f))
	}

	line.AppendString("\n")
	return line, nil
}

func fieldValue(f zapcore.Field) string {
	switch f.Type {
	case zapcore.StringType:
		return f.String
	case zapcore.BoolType:
		if f.Integer == 1 {
			return "true"
		}
		return "false"
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return fmt.Sprint(f.Integer)
	case zapcore.Float64Type:
		return fmt.Sprint(math.Float64frombits(uint64(f.Integer)))
	case zapcore.DurationType:
		return time.Duration(f.Integer).String()
	case zapcore.ErrorType:
		if err, ok := f.Interface.(error); ok {
			return err.Error()
		}
	case zapcore.StringerType:
		if s, ok := f.Interface.(fmt.Stringer); ok {
			return s.String()
		}
	}
	return fmt.Sprint(f.Interface)
}

// SetLevel accepts debug, info, warn or error. Anything else leaves the level alone.
func SetLevel(level string) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return
	}
	atom.SetLevel(l)
}

func SetDebug() {
	atom.SetLevel(zapcore.DebugLevel)
}

// SetOutput redirects all logging, mostly for tests.
func SetOutput(w io.Writer) {
	log = newLogger(w)
}

func GetLogger() *zap.Logger {
	return log
}

func Error(err error, fields ...zap.Field) {
	allFields := append([]zap.Field{zap.Error(err)}, fields...)
	log.Error("error", allFields...)
}

func Errorf(template string, args ...interface{}) {
	log.Sugar().Errorf(template, args...)
}

func Warn(msg string, fields ...zap.Field) {
	log.Warn(msg, fields...)
}

func Warnf(template string, args ...interface{}) {
	log.Sugar().Warnf(template, args...)
}

func Info(msg string, fields ...zap.Field) {
	log.Info(msg, fields...)
}

func Infof(template string, args ...interface{}) {
	log.Sugar().Infof(template, args...)
}

func Debug(msg string, fields ...zap.Field) {
	log.Debug(msg, fields...)
}

func Debugf(template string, args ...interface{}) {
	log.Sugar().Debugf(template, args...)
}
