package hooks

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroup_Revoke(t *testing.T) {
	r := testRegistry()
	other := r.AddFilter("the_content", 50, appendFilter("[other]"))

	g := NewGroup(r, "hello-world")
	g.AddFilter("the_content", PriorityLast, appendFilter("[footer]"))
	g.AddAction("wp_head", PriorityDefault, ActionFunc(func(context.Context) error { return nil }))

	assert.Equal(t, 2, g.Len())
	assert.Equal(t, "hello-world", g.Owner())
	assert.Len(t, g.Tokens(), 2)

	assert.Equal(t, 2, g.Revoke())
	assert.Equal(t, 0, g.Len())
	assert.Equal(t, 0, r.Count("wp_head"))
	assert.Equal(t, "x[other]", r.ApplyFilters(context.Background(), "the_content", "x"))

	// revoking twice is harmless and other owners are untouched
	assert.Equal(t, 0, g.Revoke())
	assert.True(t, r.Remove(other))
}

func TestGroup_ReuseDoesNotAccumulate(t *testing.T) {
	r := testRegistry()
	g := NewGroup(r, "cycle")

	for i := 0; i < 5; i++ {
		g.AddFilter("the_content", PriorityLast, appendFilter("!"))
		assert.Equal(t, 1, r.Count("the_content"))
		g.Revoke()
	}
	assert.Equal(t, 0, r.Len())
}

func TestGroup_RevokeSkipsAlreadyRemoved(t *testing.T) {
	r := testRegistry()
	g := NewGroup(r, "p")

	tok := g.AddFilter("f", 1, appendFilter("a"))
	g.AddFilter("f", 2, appendFilter("b"))
	r.Remove(tok)

	assert.Equal(t, 1, g.Revoke())
}

func TestWriter(t *testing.T) {
	assert.Equal(t, os.Stdout, Writer(context.Background()))

	var buf bytes.Buffer
	ctx := WithWriter(context.Background(), &buf)
	assert.Equal(t, &buf, Writer(ctx))

	r := testRegistry()
	r.AddAction("wp_head", PriorityDefault, ActionFunc(func(ctx context.Context) error {
		_, err := Writer(ctx).Write([]byte("<style></style>"))
		return err
	}))
	r.RunAction(ctx, "wp_head")
	assert.Equal(t, "<style></style>", buf.String())
}
