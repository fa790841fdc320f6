package mssql

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ekaya-inc/askdb/pkg/config"
	"github.com/ekaya-inc/askdb/pkg/models"
)

const (
	AuthSQL              = "sql"
	AuthServicePrincipal = "service_principal"
)

// Config contains SQL Server-specific connection options.
type Config struct {
	ConnString string
	Host       string
	Port       int
	Database   string
	Schema     string

	// AuthMethod is "sql" or "service_principal".
	AuthMethod string

	// SQL Authentication fields
	Username string
	Password string

	// Service Principal (Azure AD) fields
	TenantID     string
	ClientID     string
	ClientSecret string

	Encrypt                bool
	TrustServerCertificate bool
	ConnectionTimeout      int
}

// DefaultPort returns the default SQL Server port.
func DefaultPort() int {
	return 1433
}

// DefaultConnectionTimeout returns the default connection timeout in seconds.
func DefaultConnectionTimeout() int {
	return 30
}

// FromProfile creates a Config from a connection profile and detects the auth
// method. Azure AD settings come from profile options (tenant_id, client_id,
// client_secret); their presence selects service principal auth.
func FromProfile(p models.ConnectionProfile) (*Config, error) {
	opts := p.Options
	cfg := &Config{
		ConnString:        strings.TrimSpace(p.ConnString),
		Host:              p.Host,
		Port:              p.Port,
		Database:          p.Database,
		Schema:            opts["schema"],
		Username:          p.Username,
		Password:          p.Password,
		TenantID:          opts["tenant_id"],
		ClientID:          opts["client_id"],
		ClientSecret:      opts["client_secret"],
		Encrypt:           true,
		ConnectionTimeout: DefaultConnectionTimeout(),
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort()
	}
	if cfg.Schema == "" {
		cfg.Schema = "dbo"
	}
	if v, ok := opts["encrypt"]; ok {
		cfg.Encrypt = v == "true" || v == "strict"
	}
	if v, ok := opts["trust_server_certificate"]; ok {
		cfg.TrustServerCertificate = v == "true"
	}
	if v, ok := opts["connection_timeout"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid connection_timeout %q", v)
		}
		cfg.ConnectionTimeout = n
	}

	if method := opts["auth_method"]; method != "" {
		cfg.AuthMethod = method
	} else if cfg.ClientID != "" {
		cfg.AuthMethod = AuthServicePrincipal
	} else {
		cfg.AuthMethod = AuthSQL
	}

	if cfg.ConnString != "" {
		return cfg, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if the config has all required fields for the selected auth method.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	switch c.AuthMethod {
	case AuthSQL:
		if c.Username == "" {
			return fmt.Errorf("username is required for SQL authentication")
		}
	case AuthServicePrincipal:
		if c.TenantID == "" || c.ClientID == "" || c.ClientSecret == "" {
			return fmt.Errorf("tenant_id, client_id and client_secret are required for service principal")
		}
	default:
		return fmt.Errorf("invalid auth method: %s (must be sql or service_principal)", c.AuthMethod)
	}
	return nil
}

// DriverName returns the database/sql driver for the auth method. Azure AD
// service principals go through the azuread driver.
func (c *Config) DriverName() string {
	if c.AuthMethod == AuthServicePrincipal {
		return "azuresql"
	}
	return "sqlserver"
}

// DSN builds the sqlserver:// connection URL.
func (c *Config) DSN() string {
	if c.ConnString != "" {
		return c.ConnString
	}

	query := url.Values{}
	query.Add("database", c.Database)
	query.Add("encrypt", strconv.FormatBool(c.Encrypt))
	if c.TrustServerCertificate {
		query.Add("TrustServerCertificate", "true")
	}
	if c.ConnectionTimeout > 0 {
		query.Add("connection timeout", strconv.Itoa(c.ConnectionTimeout))
	}

	host := config.ResolveHostForDocker(c.Host)
	if c.AuthMethod == AuthServicePrincipal {
		query.Add("fedauth", "ActiveDirectoryServicePrincipal")
		query.Add("user id", c.ClientID+"@"+c.TenantID)
		query.Add("password", c.ClientSecret)
		return fmt.Sprintf("sqlserver://%s:%d?%s", host, c.Port, query.Encode())
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     fmt.Sprintf("%s:%d", host, c.Port),
		RawQuery: query.Encode(),
	}
	return u.String()
}
