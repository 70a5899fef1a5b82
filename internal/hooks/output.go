package hooks

import (
	"context"
	"io"
	"os"
)

type writerKey struct{}

// WithWriter returns a context whose actions write their output to w.
func WithWriter(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, writerKey{}, w)
}

// Writer returns the output sink carried by ctx, or os.Stdout.
func Writer(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(writerKey{}).(io.Writer); ok && w != nil {
		return w
	}
	return os.Stdout
}
