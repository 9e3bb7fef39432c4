// Package config defines the server configuration structure.
package config

// Default configuration values.
const (
	DefaultRPCAddr     = "[::]:50051"
	DefaultRateLimit   = 0
	DefaultLocalSocket = "/var/run/quiesced/quiesced.sock"

	DefaultGracePeriod = "30s"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			RPC: RPCConfig{
				Addr:      DefaultRPCAddr,
				RateLimit: DefaultRateLimit,
			},
			Local: LocalConfig{
				Path: DefaultLocalSocket,
			},
		},
		Shutdown: ShutdownSection{
			GracePeriod: DefaultGracePeriod,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
