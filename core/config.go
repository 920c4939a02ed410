package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultOAuthPollIntervalMS  = 250
	defaultOAuthFlowTimeoutMS   = 5 * 60 * 1000
	defaultOAuthStoragePrefix   = "appclient:oauth2:"
	defaultMaxResponseBodyBytes = 10 << 20 // 10 MiB
	defaultClientName           = "appclient"
)

type OAuthConfig struct {
	PollIntervalMS int    `koanf:"poll_interval_ms" mapstructure:"poll_interval_ms"`
	FlowTimeoutMS  int    `koanf:"flow_timeout_ms" mapstructure:"flow_timeout_ms"`
	StoragePrefix  string `koanf:"storage_prefix" mapstructure:"storage_prefix"`
}

type Config struct {
	ClientName           string      `koanf:"client_name" mapstructure:"client_name"`
	BaseURL              string      `koanf:"base_url" mapstructure:"base_url"`
	RequestTimeoutMS     int         `koanf:"request_timeout_ms" mapstructure:"request_timeout_ms"`
	MaxResponseBodyBytes int64       `koanf:"max_response_body_bytes" mapstructure:"max_response_body_bytes"`
	OAuth                OAuthConfig `koanf:"oauth" mapstructure:"oauth"`
}

func DefaultConfig() Config {
	return Config{
		ClientName:           defaultClientName,
		MaxResponseBodyBytes: defaultMaxResponseBodyBytes,
		OAuth: OAuthConfig{
			PollIntervalMS: defaultOAuthPollIntervalMS,
			FlowTimeoutMS:  defaultOAuthFlowTimeoutMS,
			StoragePrefix:  defaultOAuthStoragePrefix,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ClientName) == "" {
		return fmt.Errorf("core: client_name is required")
	}
	if c.RequestTimeoutMS < 0 {
		return fmt.Errorf("core: request_timeout_ms must not be negative")
	}
	if c.MaxResponseBodyBytes < 0 {
		return fmt.Errorf("core: max_response_body_bytes must not be negative")
	}
	if c.OAuth.PollIntervalMS < 0 || c.OAuth.FlowTimeoutMS < 0 {
		return fmt.Errorf("core: oauth intervals must not be negative")
	}
	return nil
}

// RequestTimeout is the timeout applied to requests that carry none.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

func (c OAuthConfig) PollInterval() time.Duration {
	if c.PollIntervalMS <= 0 {
		return defaultOAuthPollIntervalMS * time.Millisecond
	}
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

func (c OAuthConfig) FlowTimeout() time.Duration {
	return time.Duration(c.FlowTimeoutMS) * time.Millisecond
}

func (c OAuthConfig) Prefix() string {
	if strings.TrimSpace(c.StoragePrefix) == "" {
		return defaultOAuthStoragePrefix
	}
	return c.StoragePrefix
}
