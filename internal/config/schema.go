package config

import "time"

// Config is the root configuration document.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	WebSocket WebSocketConfig `yaml:"websocket"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string    `yaml:"addr"`
	ReadTimeout     *Duration `yaml:"read_timeout,omitempty"`
	WriteTimeout    *Duration `yaml:"write_timeout,omitempty"`
	IdleTimeout     *Duration `yaml:"idle_timeout,omitempty"`
	ShutdownTimeout *Duration `yaml:"shutdown_timeout,omitempty"`
}

// WebSocketConfig configures the subscriber feed.
type WebSocketConfig struct {
	// WriteTimeout bounds one delivery attempt to one subscriber.
	WriteTimeout *Duration `yaml:"write_timeout,omitempty"`
}

// Duration wraps time.Duration for YAML unmarshaling.
type Duration time.Duration

// UnmarshalYAML parses duration strings like "30s" or "1m".
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML serializes as a duration string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d *Duration) Std() time.Duration {
	if d == nil {
		return 0
	}
	return time.Duration(*d)
}

// DefaultConfig returns sensible defaults for a new installation.
func DefaultConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{Addr: ":8080"},
	}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == nil {
		c.Server.ReadTimeout = newDuration(10 * time.Second)
	}
	if c.Server.WriteTimeout == nil {
		c.Server.WriteTimeout = newDuration(30 * time.Second)
	}
	if c.Server.IdleTimeout == nil {
		c.Server.IdleTimeout = newDuration(60 * time.Second)
	}
	if c.Server.ShutdownTimeout == nil {
		c.Server.ShutdownTimeout = newDuration(10 * time.Second)
	}
	if c.WebSocket.WriteTimeout == nil {
		c.WebSocket.WriteTimeout = newDuration(5 * time.Second)
	}
}

func newDuration(d time.Duration) *Duration {
	wrapped := Duration(d)
	return &wrapped
}
