package datasource

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/askdb/pkg/apperrors"
	"github.com/ekaya-inc/askdb/pkg/models"
)

// Open returns a Connector for the profile's dialect. No connection is made
// until the connector is used.
func Open(ctx context.Context, profile models.ConnectionProfile, logger *zap.Logger) (Connector, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg, ok := lookup(profile.DBType)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported database type %q (not compiled in)", apperrors.ErrInvalidInput, profile.DBType)
	}
	conn, err := reg.Open(ctx, profile, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s connector: %w", reg.Info.Dialect, err)
	}
	return conn, nil
}
