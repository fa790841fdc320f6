package postgres

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ekaya-inc/askdb/pkg/config"
	"github.com/ekaya-inc/askdb/pkg/models"
)

// Config contains PostgreSQL-specific connection options.
type Config struct {
	// ConnString, when set, is used verbatim and the other fields are ignored.
	ConnString string
	Host       string
	Port       int
	User       string
	Password   string
	Database   string
	SSLMode    string // "disable", "prefer", "require", "verify-ca", "verify-full"
	Schema     string
}

// DefaultPort returns the default PostgreSQL port.
func DefaultPort() int {
	return 5432
}

// DefaultSSLMode returns the default SSL mode.
func DefaultSSLMode() string {
	return "prefer"
}

// DefaultSchema is the schema introspected when none is configured.
func DefaultSchema() string {
	return "public"
}

// FromProfile creates a Config from a project's connection profile.
func FromProfile(p models.ConnectionProfile) (*Config, error) {
	cfg := &Config{
		ConnString: strings.TrimSpace(p.ConnString),
		Host:       p.Host,
		Port:       p.Port,
		User:       p.Username,
		Password:   p.Password,
		Database:   p.Database,
		SSLMode:    p.SSLMode,
		Schema:     p.Options["schema"],
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort()
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = DefaultSSLMode()
	}
	if cfg.Schema == "" {
		cfg.Schema = DefaultSchema()
	}

	if cfg.ConnString != "" {
		return cfg, nil
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("user is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("database is required")
	}
	return cfg, nil
}

// ConnectionString builds a PostgreSQL URL. User-provided fields are escaped
// so passwords containing @, / or ? survive URL parsing.
func (c *Config) ConnectionString() string {
	if c.ConnString != "" {
		return c.ConnString
	}
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		config.ResolveHostForDocker(c.Host),
		c.Port,
		url.PathEscape(c.Database),
		url.QueryEscape(c.SSLMode),
	)
}
