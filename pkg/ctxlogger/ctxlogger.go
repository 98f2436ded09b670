package ctxlogger

import (
	"context"
	"log/slog"
	"slices"
)

type ctxKey struct{}

// AppendCtx returns a context carrying attr in addition to any attrs already
// attached. ContextHandler emits the attached attrs on every record logged
// with that context.
func AppendCtx(parent context.Context, attr slog.Attr) context.Context {
	if parent == nil {
		parent = context.Background()
	}

	if attrs, ok := parent.Value(ctxKey{}).([]slog.Attr); ok {
		return context.WithValue(parent, ctxKey{}, append(slices.Clip(attrs), attr))
	}

	return context.WithValue(parent, ctxKey{}, []slog.Attr{attr})
}

type ContextHandler struct {
	slog.Handler
}

func (h ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs, ok := ctx.Value(ctxKey{}).([]slog.Attr); ok {
		r.AddAttrs(attrs...)
	}

	return h.Handler.Handle(ctx, r)
}

func (h ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return ContextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h ContextHandler) WithGroup(name string) slog.Handler {
	return ContextHandler{Handler: h.Handler.WithGroup(name)}
}
