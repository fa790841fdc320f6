package mssql

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/askdb/pkg/adapters/datasource"
	"github.com/ekaya-inc/askdb/pkg/models"
)

func init() {
	datasource.Register(datasource.Registration{
		Info: datasource.DialectInfo{
			Dialect:     datasource.DialectMSSQL,
			DisplayName: "Microsoft SQL Server",
			Description: "SQL Server 2016+, Azure SQL Database",
		},
		Open: func(ctx context.Context, profile models.ConnectionProfile, logger *zap.Logger) (datasource.Connector, error) {
			cfg, err := FromProfile(profile)
			if err != nil {
				return nil, err
			}
			return NewConnector(cfg, logger), nil
		},
	})
}
