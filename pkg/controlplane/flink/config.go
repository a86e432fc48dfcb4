// Package flink implements the controlplane interface for the Apache Flink
// JobManager REST API.
package flink

import (
	"fmt"
	"time"
)

// Config configures a Flink REST client.
type Config struct {
	// Host is the JobManager REST host (required).
	Host string

	// Port is the JobManager REST port. Zero uses DefaultPort.
	Port int

	// RequestTimeout bounds each individual REST call.
	// Zero uses DefaultRequestTimeout.
	RequestTimeout time.Duration

	// RateLimit is the maximum requests per second to the REST API.
	// Zero means unlimited.
	RateLimit float64
}

// DefaultPort is the standard Flink REST/Web UI port.
const DefaultPort = 8081

// DefaultRequestTimeout bounds each REST call. Matches the poll loop's
// expectation that a single query never eats more than a few ticks.
const DefaultRequestTimeout = 5 * time.Second

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Host == "" {
		return &ConfigError{Field: "Host", Message: "jobmanager host is required"}
	}
	if c.Port < 0 || c.Port > 65535 {
		return &ConfigError{Field: "Port", Message: fmt.Sprintf("invalid port %d", c.Port)}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("flink config: %s: %s", e.Field, e.Message)
}
