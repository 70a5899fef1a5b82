package greeting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/soyeahso/hookpress/internal/hooks"
)

// Hook names registered by the plugin.
var (
	HookShortcode = hooks.ShortcodeHook("hello")
	HookWidget    = hooks.WidgetHook("hello_world")
)

const dateLayout = "January 02, 2006"

const defaultCSS = `
.hello-world-greeting {
    padding: 20px;
    background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
    color: white;
    border-radius: 8px;
    margin: 20px 0;
    font-size: 1.5em;
    text-align: center;
}
.hello-world-date {
    text-align: center;
    color: #666;
    font-style: italic;
}
.hello-world-widget {
    background: #f5f5f5;
    padding: 15px;
    border-radius: 4px;
}
`

const footer = `<div class="hello-world-footer" style="font-size: 0.8em; color: #999; margin-top: 20px; padding-top: 10px; border-top: 1px solid #eee;">
    Powered by Hello World Plugin
</div>`

// Each handler holds the settings as they were when the plugin was activated.
// Later UpdateSettings calls do not reach them; activating again does.

// shortcodeFilter renders the [hello] shortcode. The incoming content is replaced.
type shortcodeFilter struct {
	settings Settings
	now      func() time.Time
}

func (f shortcodeFilter) Apply(_ context.Context, _ string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="hello-world-greeting">%s</div>`, f.settings.GreetingText)
	if f.settings.ShowDate {
		fmt.Fprintf(&b, `<div class="hello-world-date">Today is %s</div>`, f.now().UTC().Format(dateLayout))
	}
	return b.String(), nil
}

// widgetFilter renders the greeting widget.
type widgetFilter struct {
	settings Settings
}

func (f widgetFilter) Apply(_ context.Context, _ string) (string, error) {
	return fmt.Sprintf(`<div class="widget hello-world-widget">
    <h3 class="widget-title">Greeting</h3>
    <div class="widget-content">
        <p>%s</p>
    </div>
</div>`, f.settings.GreetingText), nil
}

// headStyleAction writes the plugin stylesheet into the page head.
type headStyleAction struct {
	settings Settings
}

func (a headStyleAction) Run(ctx context.Context) error {
	css := a.settings.CustomCSS
	if css == "" {
		css = defaultCSS
	}
	_, err := fmt.Fprintf(hooks.Writer(ctx), "<style>%s</style>\n", css)
	return err
}

// footerFilter appends the plugin footer to post content.
type footerFilter struct{}

func (footerFilter) Apply(_ context.Context, content string) (string, error) {
	return content + "\n" + footer, nil
}
