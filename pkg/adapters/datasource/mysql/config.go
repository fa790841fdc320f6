package mysql

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/ekaya-inc/askdb/pkg/config"
	"github.com/ekaya-inc/askdb/pkg/models"
)

// DefaultPort returns the default MySQL port.
func DefaultPort() int {
	return 3306
}

// FromProfile builds a driver config from a connection profile. A profile
// connection string is parsed as a go-sql-driver DSN. Time values are always
// parsed so DATE and DATETIME columns arrive as time.Time.
func FromProfile(p models.ConnectionProfile) (*gomysql.Config, error) {
	var cfg *gomysql.Config
	if dsn := strings.TrimSpace(p.ConnString); dsn != "" {
		parsed, err := gomysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("invalid dsn: %w", err)
		}
		cfg = parsed
	} else {
		if p.Host == "" {
			return nil, fmt.Errorf("host is required")
		}
		if p.Username == "" {
			return nil, fmt.Errorf("user is required")
		}
		if p.Database == "" {
			return nil, fmt.Errorf("database is required")
		}
		port := p.Port
		if port == 0 {
			port = DefaultPort()
		}

		cfg = gomysql.NewConfig()
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(config.ResolveHostForDocker(p.Host), strconv.Itoa(port))
		cfg.User = p.Username
		cfg.Passwd = p.Password
		cfg.DBName = p.Database
		if tls := p.Options["tls"]; tls != "" {
			cfg.TLSConfig = tls
		}
	}

	cfg.ParseTime = true
	if cfg.Loc == nil {
		cfg.Loc = time.UTC
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return cfg, nil
}
