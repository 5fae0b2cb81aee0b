package log

import (
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"moul.io/zapfilter"
)

// Logger is a thin wrapper around zap.Logger. All packages of this module
// log through this type so that encoder, level and filter handling stay in
// one place.
type Logger struct {
	l     *zap.Logger
	level Level
}

type (
	Level  = zapcore.Level
	Field  = zap.Field
	Option = zap.Option
)

const (
	DebugLevel = zap.DebugLevel
	InfoLevel  = zap.InfoLevel
	WarnLevel  = zap.WarnLevel
	ErrorLevel = zap.ErrorLevel
	FatalLevel = zap.FatalLevel
)

// re-exported field constructors
var (
	Any        = zap.Any
	String     = zap.String
	Int        = zap.Int
	Int32      = zap.Int32
	Int64      = zap.Int64
	Uint32     = zap.Uint32
	Uint64     = zap.Uint64
	Float64    = zap.Float64
	Bool       = zap.Bool
	Time       = zap.Time
	Duration   = zap.Duration
	ErrorField = zap.Error

	WithCaller    = zap.WithCaller
	AddStacktrace = zap.AddStacktrace
	AddCallerSkip = zap.AddCallerSkip
)

func ParseLevel(text string) (Level, error) {
	return zapcore.ParseLevel(text)
}

// New creates a logger with a json encoder (production format).
func New(writer io.Writer, level Level, opts ...Option) *Logger {
	return newLogger(writer, level, prodEncoder(), opts...)
}

// DevLogger creates a logger with a console encoder for local development.
func DevLogger(writer io.Writer, level Level, opts ...Option) *Logger {
	return newLogger(writer, level, devEncoder(), opts...)
}

// NewFiltered wraps the core with zapfilter rules to control levels per
// named logger (see moul.io/zapfilter for the syntax). Used when a log
// config file is provided on the command line.
func NewFiltered(writer io.Writer, rules string, level Level, opts ...Option,
) (*Logger, error) {
	if writer == nil {
		panic("the writer is nil")
	}
	filterFunc, err := zapfilter.ParseRules(rules)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(
		prodEncoder(),
		zapcore.AddSync(writer),
		zapcore.Level(level),
	)
	return &Logger{
		l:     zap.New(zapfilter.NewFilteringCore(core, filterFunc), opts...),
		level: level,
	}, nil
}

func newLogger(writer io.Writer, level Level, enc zapcore.Encoder, opts ...Option,
) *Logger {
	if writer == nil {
		panic("the writer is nil")
	}
	core := zapcore.NewCore(
		enc,
		zapcore.AddSync(writer),
		zapcore.Level(level),
	)
	return &Logger{
		l:     zap.New(core, opts...),
		level: level,
	}
}

func prodEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format(time.RFC3339Nano))
	}
	return zapcore.NewJSONEncoder(cfg)
}

func devEncoder() zapcore.Encoder {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

func (l *Logger) Named(name string) *Logger {
	return &Logger{l: l.l.Named(name), level: l.level}
}

func (l *Logger) WithOptions(opts ...Option) *Logger {
	return &Logger{l: l.l.WithOptions(opts...), level: l.level}
}

func (l *Logger) Level() Level { return l.level }

func (l *Logger) Debug(msg string, fields ...Field) { l.l.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.l.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.l.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...Field) { l.l.Error(msg, fields...) }
func (l *Logger) Fatal(msg string, fields ...Field) { l.l.Fatal(msg, fields...) }

func (l *Logger) Sugar() *zap.SugaredLogger { return l.l.Sugar() }

func (l *Logger) Sync() error { return l.l.Sync() }

var std = New(os.Stderr, InfoLevel)

func Default() *Logger { return std }

// ResetDefault replaces the default logger and the package level log
// functions. Called once during command startup.
func ResetDefault(l *Logger) {
	std = l
	Debug = std.Debug
	Info = std.Info
	Warn = std.Warn
	Error = std.Error
	Fatal = std.Fatal
}

// package level funcs forwarding to the default logger
var (
	Debug = std.Debug
	Info  = std.Info
	Warn  = std.Warn
	Error = std.Error
	Fatal = std.Fatal
)

func Sync() error {
	if std != nil {
		return std.Sync()
	}
	return nil
}
