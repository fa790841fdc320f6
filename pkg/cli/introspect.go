package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/askdb/pkg/adapters/datasource"
	"github.com/ekaya-inc/askdb/pkg/models"
	"github.com/ekaya-inc/askdb/pkg/repositories"
)

type introspectOptions struct {
	projectID string
	dbType    string
	connStr   string
	output    string
}

func newIntrospectCommand() *cobra.Command {
	var opts introspectOptions
	cmd := &cobra.Command{
		Use:   "introspect",
		Short: "Describe a database's tables in project catalog format",
		Long: `Connect to a database, list its tables, columns and foreign keys, and
print them as the "tables:" section of a project catalog entry.

Examples:
  askdb introspect --project sales
  askdb introspect --db-type mysql --conn "user:pass@tcp(localhost:3306)/shop" -o shop.yaml
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			profile, err := opts.profile(cmd.Context(), cfg.ProjectsFile)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.output != "" {
				f, err := os.Create(opts.output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", opts.output, err)
				}
				defer f.Close()
				out = f
			}

			open := func(ctx context.Context) (datasource.Connector, error) {
				return datasource.Open(ctx, profile, logger)
			}
			return introspect(cmd.Context(), open, out, logger)
		},
	}

	cmd.Flags().StringVarP(&opts.projectID, "project", "p", "", "Use the connection of a catalog project")
	cmd.Flags().StringVar(&opts.dbType, "db-type", "", "Database type: postgres, mysql, mssql or oracle")
	cmd.Flags().StringVar(&opts.connStr, "conn", "", "Driver connection string")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write YAML to a file instead of stdout")
	cmd.MarkFlagsMutuallyExclusive("project", "db-type")
	cmd.MarkFlagsRequiredTogether("db-type", "conn")
	return cmd
}

func (o introspectOptions) profile(ctx context.Context, catalogPath string) (models.ConnectionProfile, error) {
	if o.projectID == "" {
		if o.dbType == "" {
			return models.ConnectionProfile{}, fmt.Errorf("either --project or --db-type with --conn is required")
		}
		return models.ConnectionProfile{DBType: o.dbType, ConnString: o.connStr}, nil
	}

	projects, err := repositories.NewFileProjectRepository(catalogPath)
	if err != nil {
		return models.ConnectionProfile{}, err
	}
	project, err := projects.Get(ctx, o.projectID)
	if err != nil {
		return models.ConnectionProfile{}, err
	}
	return project.Connection, nil
}

type introspectedCatalog struct {
	Tables []models.TableSchema `yaml:"tables"`
}

// introspect opens a connector, reads its schema and writes it as YAML. The
// connector is closed whether or not introspection succeeds.
func introspect(ctx context.Context, open func(context.Context) (datasource.Connector, error), w io.Writer, logger *zap.Logger) error {
	conn, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Warn("Failed to close connector", zap.Error(err))
		}
	}()

	tables, err := datasource.IntrospectSchema(ctx, conn)
	if err != nil {
		return fmt.Errorf("failed to introspect %s database: %w", conn.Dialect(), err)
	}
	logger.Info("Introspected schema",
		zap.String("dialect", conn.Dialect().String()),
		zap.Int("tables", len(tables)))

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(introspectedCatalog{Tables: tables}); err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	return enc.Close()
}
