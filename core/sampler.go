package core

import "context"

// TableSample is a bounded set of rows read from one table for inspection.
type TableSample struct {
	// Database the table belongs to
	Database string

	// Table name
	Table string

	// RowCount is the total number of rows in the table, not the sample size
	RowCount int64

	// Fields lists the column names in table order
	Fields []string

	// Rows holds the sampled records as field→value maps. NULL values are
	// represented as the empty string.
	Rows []map[string]string
}

// GrantRow is one raw privilege row for a database user, as reported by the
// adapter.
type GrantRow struct {
	User string
	Host string

	// Scope the privileges apply to, e.g. "*.*" for global grants
	Scope string

	// Privileges present for this user/host, upper-case names such as
	// SELECT, INSERT, SUPER
	Privileges []string
}

// Sampler is the adapter contract the engine uses to obtain schemas, sampled
// rows and privilege rows. Implementations own connection management; the
// engine only consumes already-connected query results. Implementations that
// also satisfy io.Closer are closed by the auditor when a datasource audit
// finishes.
type Sampler interface {
	// ListDatabases returns the business database names, system schemas
	// excluded.
	ListDatabases(ctx context.Context) ([]string, error)

	// ListTables returns the table names of one database.
	ListTables(ctx context.Context, database string) ([]string, error)

	// RowCount returns the total number of rows in a table.
	RowCount(ctx context.Context, database, table string) (int64, error)

	// SampleRows reads at most n rows from a table. An empty table yields a
	// sample with the field list populated and no rows.
	SampleRows(ctx context.Context, database, table string, n int) (TableSample, error)

	// ListGrants returns the raw privilege rows of every database user.
	ListGrants(ctx context.Context) ([]GrantRow, error)
}
