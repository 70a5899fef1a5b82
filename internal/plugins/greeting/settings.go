package greeting

import (
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// Default setting values.
const (
	DefaultGreetingText = "Hello, World!"
	DefaultShowDate     = true
	DefaultCustomCSS    = ""
)

// Settings configures the greeting plugin.
type Settings struct {
	GreetingText string `json:"greeting_text" yaml:"greeting_text" jsonschema:"title=Greeting Text,description=The text to display in the greeting"`
	ShowDate     bool   `json:"show_date" yaml:"show_date" jsonschema:"title=Show Date,description=Whether to show the current date"`
	CustomCSS    string `json:"custom_css" yaml:"custom_css" jsonschema:"title=Custom CSS,description=Custom CSS styles for the plugin"`
}

// DefaultSettings returns the settings a new plugin starts with.
func DefaultSettings() Settings {
	return Settings{
		GreetingText: DefaultGreetingText,
		ShowDate:     DefaultShowDate,
		CustomCSS:    DefaultCustomCSS,
	}
}

// JSONSchemaExtend fills in the per-field defaults, which cannot be expressed
// in struct tags because the greeting contains a comma.
func (Settings) JSONSchemaExtend(s *jsonschema.Schema) {
	defaults := map[string]any{
		"greeting_text": DefaultGreetingText,
		"show_date":     DefaultShowDate,
		"custom_css":    DefaultCustomCSS,
	}
	for name, def := range defaults {
		if prop, ok := s.Properties.Get(name); ok {
			prop.Default = def
		}
	}
}

// configSchema reflects Settings into a JSON-Schema object description.
func configSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		ExpandedStruct:             true,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	return r.Reflect(&Settings{})
}

// mergeRaw overlays a loosely typed settings map (as decoded from the host
// YAML config) onto base. Keys absent from raw keep their base value.
func mergeRaw(base Settings, raw map[string]any) (Settings, error) {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return base, err
	}
	out := base
	if err := yaml.Unmarshal(data, &out); err != nil {
		return base, err
	}
	return out, nil
}
