package datasource

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ekaya-inc/askdb/pkg/models"
)

// DialectInfo describes a registered dialect.
type DialectInfo struct {
	Dialect     Dialect `json:"dialect"`
	DisplayName string  `json:"display_name"` // "PostgreSQL", "Microsoft SQL Server"
	Description string  `json:"description"`
}

// OpenFunc builds a Connector from a connection profile.
type OpenFunc func(ctx context.Context, profile models.ConnectionProfile, logger *zap.Logger) (Connector, error)

// Registration contains info + the factory for one dialect.
type Registration struct {
	Info DialectInfo
	Open OpenFunc
}

var (
	registryMu sync.RWMutex
	registry   = make(map[Dialect]Registration)
)

// aliases maps alternative db_type spellings to canonical dialects.
var aliases = map[string]Dialect{
	"postgresql": DialectPostgres,
	"pg":         DialectPostgres,
	"sqlserver":  DialectMSSQL,
	"mariadb":    DialectMySQL,
}

// Register is called by each dialect package's init() function.
func Register(reg Registration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Dialect] = reg
}

// ResolveDialect normalizes a db_type value, applying aliases.
func ResolveDialect(dbType string) Dialect {
	key := strings.ToLower(strings.TrimSpace(dbType))
	if d, ok := aliases[key]; ok {
		return d
	}
	return Dialect(key)
}

// RegisteredDialects returns info for all registered dialects, sorted by tag.
func RegisteredDialects() []DialectInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]DialectInfo, 0, len(registry))
	for _, reg := range registry {
		result = append(result, reg.Info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Dialect < result[j].Dialect })
	return result
}

// IsRegistered checks if a db_type resolves to a compiled-in dialect.
func IsRegistered(dbType string) bool {
	_, ok := lookup(dbType)
	return ok
}

func lookup(dbType string) (Registration, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	reg, ok := registry[ResolveDialect(dbType)]
	return reg, ok
}
