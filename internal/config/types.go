package config

// Config is the root host configuration for hookpress.
type Config struct {
	Gateway GatewayConfig           `yaml:"gateway,omitempty"`
	Logging LoggingConfig           `yaml:"logging,omitempty"`
	Store   StoreConfig             `yaml:"store,omitempty"`
	Plugins map[string]PluginConfig `yaml:"plugins,omitempty"`
}

// GatewayConfig configures the HTTP + WebSocket preview gateway.
type GatewayConfig struct {
	Port           int         `yaml:"port,omitempty"`
	Bind           string      `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	CustomBindHost string      `yaml:"customBindHost,omitempty"`
	Auth           GatewayAuth `yaml:"auth,omitempty"`
	TLS            GatewayTLS  `yaml:"tls,omitempty"`
	AllowedOrigins []string    `yaml:"allowedOrigins,omitempty"`
}

// GatewayAuth configures authentication of WebSocket clients.
type GatewayAuth struct {
	Mode     string `yaml:"mode,omitempty"` // "none" | "token" | "password"
	Token    string `yaml:"token,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// GatewayTLS configures TLS for the gateway.
type GatewayTLS struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	CertPath string `yaml:"certPath,omitempty"`
	KeyPath  string `yaml:"keyPath,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File       string `yaml:"file,omitempty"`  // rotated JSON log file; empty disables
	MaxSizeMB  int    `yaml:"maxSizeMB,omitempty"`
	MaxBackups int    `yaml:"maxBackups,omitempty"`
	MaxAgeDays int    `yaml:"maxAgeDays,omitempty"`
	Compress   *bool  `yaml:"compress,omitempty"`
}

// StoreConfig controls plugin settings persistence.
type StoreConfig struct {
	Path     string `yaml:"path,omitempty"` // sqlite file, ":memory:" for ephemeral
	Disabled bool   `yaml:"disabled,omitempty"`
}

// PluginConfig configures a single plugin.
type PluginConfig struct {
	Enabled  *bool          `yaml:"enabled,omitempty"` // defaults to true
	Settings map[string]any `yaml:"settings,omitempty"`
}

// IsEnabled reports whether the plugin should be activated at startup.
func (p PluginConfig) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// Plugin returns the configuration for a plugin id. Unknown ids get the
// zero PluginConfig, which is enabled with no settings.
func (c Config) Plugin(id string) PluginConfig {
	return c.Plugins[id]
}
