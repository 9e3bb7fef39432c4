// Package config defines the server configuration structure.
package config

import (
	"errors"
	"fmt"

	"github.com/mbaklund/quiesce/internal/infra/lifecycle"
)

// Verify validates the configuration. A malformed or negative grace
// period is rejected here, before any shutdown can occur.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyShutdown(&cfg.Shutdown); err != nil {
		return err
	}
	return nil
}

func verifyServer(cfg *ServerSection) error {
	if cfg.RPC.Addr == "" {
		return errors.New("server.rpc.addr is required")
	}
	if cfg.RPC.RateLimit < 0 {
		return errors.New("server.rpc.rate_limit must not be negative")
	}
	if (cfg.RPC.TLSCert == "") != (cfg.RPC.TLSKey == "") {
		return errors.New("server.rpc.tls_cert and server.rpc.tls_key must be set together")
	}
	return nil
}

func verifyShutdown(cfg *ShutdownSection) error {
	if _, err := lifecycle.ParseGracePeriod(cfg.GracePeriod); err != nil {
		return fmt.Errorf("shutdown.grace_period: %w", err)
	}
	return nil
}

// Grace parses the configured grace period. Call Verify first; Grace
// repeats its validation for callers that skip it.
func (s *ShutdownSection) Grace() (lifecycle.GracePeriod, error) {
	return lifecycle.ParseGracePeriod(s.GracePeriod)
}
