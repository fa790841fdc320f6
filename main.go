package main

import (
	"github.com/ekaya-inc/askdb/pkg/cli"

	// Dialect connectors register themselves with the datasource factory.
	_ "github.com/ekaya-inc/askdb/pkg/adapters/datasource/mssql"
	_ "github.com/ekaya-inc/askdb/pkg/adapters/datasource/mysql"
	_ "github.com/ekaya-inc/askdb/pkg/adapters/datasource/oracle"
	_ "github.com/ekaya-inc/askdb/pkg/adapters/datasource/postgres"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cli.Execute(Version)
}
