package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Built-in fallbacks. The URL default is conditional on the credential: a
// configured key targets EverMemOS Cloud, no key targets a local deployment.
const (
	DefaultCloudURL   = "https://api.evermind.ai"
	DefaultLocalURL   = "http://localhost:1995"
	DefaultAPIVersion = "v0"
	DefaultUserID     = "windsurf_user"
	DefaultGroupID    = "windsurf_project"
	DefaultTimeout    = 30 * time.Second
)

// Config is the resolved connection profile plus the default identity context.
// It is built once at startup and treated as immutable afterwards.
type Config struct {
	APIKey     string
	APIURL     string
	APIVersion string

	UserID  string
	GroupID string

	RequestTimeout time.Duration
}

// ConfigurationError reports a required setting that resolved to no value at
// any precedence level.
type ConfigurationError struct {
	Field string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: no value resolved for %s", e.Field)
}

type Option func(*Config)

func WithAPIKey(key string) Option   { return func(c *Config) { c.APIKey = key } }
func WithAPIURL(url string) Option   { return func(c *Config) { c.APIURL = url } }
func WithAPIVersion(v string) Option { return func(c *Config) { c.APIVersion = v } }
func WithUserID(id string) Option    { return func(c *Config) { c.UserID = id } }
func WithGroupID(id string) Option   { return func(c *Config) { c.GroupID = id } }

func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.RequestTimeout = d }
}

// Resolve derives the effective configuration. Precedence per field is
// explicit option > environment variable > built-in default. The api_url
// default is evaluated only after the credential is known, never before.
func Resolve(opts ...Option) (*Config, error) {
	cfg := &Config{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("EVERMEM_API_KEY")
	}
	if cfg.APIURL == "" {
		cfg.APIURL = os.Getenv("EVERMEM_API_URL")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = os.Getenv("EVERMEM_API_VERSION")
	}
	if cfg.UserID == "" {
		cfg.UserID = os.Getenv("EVERMEM_USER_ID")
	}
	if cfg.GroupID == "" {
		cfg.GroupID = os.Getenv("EVERMEM_GROUP_ID")
	}

	if cfg.APIURL == "" {
		if cfg.APIKey != "" {
			cfg.APIURL = DefaultCloudURL
		} else {
			cfg.APIURL = DefaultLocalURL
		}
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.UserID == "" {
		cfg.UserID = DefaultUserID
	}
	if cfg.GroupID == "" {
		cfg.GroupID = DefaultGroupID
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultTimeout
	}

	for field, value := range map[string]string{
		"api_url":     cfg.APIURL,
		"api_version": cfg.APIVersion,
		"user_id":     cfg.UserID,
		"group_id":    cfg.GroupID,
	} {
		if value == "" {
			return nil, &ConfigurationError{Field: field}
		}
	}

	return cfg, nil
}
