package kit

import (
	"io"
	"os"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// logifaceLogger adapts a github.com/joeycumines/logiface logger (writing
// newline-delimited JSON via github.com/joeycumines/stumpy) to the kit
// Logger interface. This is the default structured backend named in
// SPEC_FULL.md §10.1: the teacher's own go.mod lists logiface as a direct
// dependency of the event-loop package, and stumpy is its companion JSON
// encoder.
type logifaceLogger struct {
	l *logiface.Logger[*stumpy.Event]
}

// NewLogifaceLogger builds a Logger backed by logiface+stumpy, writing
// newline-delimited JSON to w (os.Stderr if nil).
func NewLogifaceLogger(w io.Writer, level Level) Logger {
	if w == nil {
		w = os.Stderr
	}
	l := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		logiface.WithLevel[*stumpy.Event](toLogifaceLevel(level)),
	)
	return &logifaceLogger{l: l}
}

func toLogifaceLevel(l Level) logiface.Level {
	switch l {
	case LevelDebug:
		return logiface.LevelDebug
	case LevelInfo:
		return logiface.LevelInformational
	case LevelWarn:
		return logiface.LevelWarning
	case LevelError:
		return logiface.LevelError
	default:
		return logiface.LevelInformational
	}
}

func applyFields(b *logiface.Builder[*stumpy.Event], fields []Field) *logiface.Builder[*stumpy.Event] {
	for _, f := range fields {
		b = b.Any(f.Key, f.Value)
	}
	return b
}

func (x *logifaceLogger) Debug(msg string, fields ...Field) {
	applyFields(x.l.Debug(), fields).Log(msg)
}

func (x *logifaceLogger) Info(msg string, fields ...Field) {
	applyFields(x.l.Info(), fields).Log(msg)
}

func (x *logifaceLogger) Warn(msg string, fields ...Field) {
	applyFields(x.l.Warning(), fields).Log(msg)
}

func (x *logifaceLogger) Error(msg string, fields ...Field) {
	applyFields(x.l.Err(), fields).Log(msg)
}
