// Package config defines the server configuration structure.
package config

// ServerConfig is the root configuration for quiesced.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server"`
	Shutdown ShutdownSection `koanf:"shutdown"`
	Log      LogSection      `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	RPC   RPCConfig   `koanf:"rpc"`
	Local LocalConfig `koanf:"local"`
}

// RPCConfig configures the RPC (health/reflection) server.
type RPCConfig struct {
	Addr string `koanf:"addr"`

	// RateLimit is the maximum number of requests per second per IP.
	// Set to 0 to disable rate limiting.
	RateLimit int `koanf:"rate_limit"`

	// TLSCert and TLSKey enable TLS when both are set. The pair is
	// watched and reloaded on change.
	TLSCert string `koanf:"tls_cert"`
	TLSKey  string `koanf:"tls_key"`
}

// LocalConfig configures the local management socket.
type LocalConfig struct {
	Path string `koanf:"path"`
}

// ShutdownSection configures shutdown behavior.
type ShutdownSection struct {
	// GracePeriod is the maximum time to wait for in-flight
	// connections to drain before forcing termination. One of:
	// "infinite", or a duration string such as "30s" or "0s".
	// Immutable for the process lifetime.
	GracePeriod string `koanf:"grace_period"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
