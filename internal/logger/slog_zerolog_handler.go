package logger

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// bridge adapts a zerolog logger to the slog.Handler contract so the rest
// of the code can depend on *slog.Logger while output, levels and the
// request/job/component context fields stay in zerolog's hands.
type bridge struct {
	zl    *zerolog.Logger
	attrs []slog.Attr
}

// NewSlog wraps zl in a *slog.Logger.
func NewSlog(zl *zerolog.Logger) *slog.Logger {
	return slog.New(&bridge{zl: zl})
}

func (b *bridge) Enabled(_ context.Context, l slog.Level) bool {
	return zerologLevel(l) >= b.zl.GetLevel()
}

func (b *bridge) Handle(ctx context.Context, r slog.Record) error {
	ev := FromContext(ctx, b.zl).WithLevel(zerologLevel(r.Level))
	for _, a := range b.attrs {
		ev = appendAttr(ev, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		ev = appendAttr(ev, a)
		return true
	})
	ev.Msg(r.Message)
	return nil
}

func (b *bridge) WithAttrs(attrs []slog.Attr) slog.Handler {
	cp := &bridge{zl: b.zl}
	cp.attrs = append(append(cp.attrs, b.attrs...), attrs...)
	return cp
}

// WithGroup is a no-op: the log schema here is flat by convention.
func (b *bridge) WithGroup(string) slog.Handler { return b }

// zerologLevel collapses slog's open-ended levels onto the four zerolog
// levels this server actually emits.
func zerologLevel(l slog.Level) zerolog.Level {
	switch {
	case l <= slog.LevelDebug:
		return zerolog.DebugLevel
	case l >= slog.LevelError:
		return zerolog.ErrorLevel
	case l >= slog.LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

func appendAttr(ev *zerolog.Event, a slog.Attr) *zerolog.Event {
	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return ev.Str(a.Key, v.String())
	case slog.KindInt64:
		return ev.Int64(a.Key, v.Int64())
	case slog.KindUint64:
		return ev.Uint64(a.Key, v.Uint64())
	case slog.KindFloat64:
		return ev.Float64(a.Key, v.Float64())
	case slog.KindBool:
		return ev.Bool(a.Key, v.Bool())
	case slog.KindDuration:
		return ev.Dur(a.Key, v.Duration())
	case slog.KindTime:
		return ev.Time(a.Key, v.Time().UTC())
	default:
		return ev.Interface(a.Key, v.Any())
	}
}
