package host

import (
	"bytes"
	"context"
	"regexp"

	"github.com/soyeahso/hookpress/internal/hooks"
)

// shortcodePattern matches a bare [tag] shortcode.
var shortcodePattern = regexp.MustCompile(`\[([a-z0-9_]+)\]`)

// Render produces a page from content: head is everything written by the
// wp_head actions, body is content with its shortcodes expanded and then
// passed through the the_content filters.
func (h *Host) Render(ctx context.Context, content string) (head, body string) {
	var buf bytes.Buffer
	h.hooks.RunAction(hooks.WithWriter(ctx, &buf), hooks.HookHead)

	body = h.ExpandShortcodes(ctx, content)
	body = h.hooks.ApplyFilters(ctx, hooks.HookContent, body)
	return buf.String(), body
}

// ExpandShortcodes replaces every [tag] in content that has a registered
// shortcode handler with the handler's output. Unknown tags are left as is.
func (h *Host) ExpandShortcodes(ctx context.Context, content string) string {
	return shortcodePattern.ReplaceAllStringFunc(content, func(match string) string {
		out, ok := h.Shortcode(ctx, match[1:len(match)-1])
		if !ok {
			return match
		}
		return out
	})
}

// Shortcode renders the named shortcode. It reports false when no handler
// is registered for it.
func (h *Host) Shortcode(ctx context.Context, name string) (string, bool) {
	hook := hooks.ShortcodeHook(name)
	if h.hooks.Count(hook) == 0 {
		return "", false
	}
	return h.hooks.ApplyFilters(ctx, hook, ""), true
}

// Widget renders the named widget. It reports false when no handler is
// registered for it.
func (h *Host) Widget(ctx context.Context, name string) (string, bool) {
	hook := hooks.WidgetHook(name)
	if h.hooks.Count(hook) == 0 {
		return "", false
	}
	return h.hooks.ApplyFilters(ctx, hook, ""), true
}
