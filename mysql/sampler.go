// Package mysql implements the core.Sampler adapter contract against a MySQL
// server using database/sql and the go-sql-driver.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/seclens/dbaudit/config"
	"github.com/seclens/dbaudit/core"
)

// systemSchemas are never audited.
var systemSchemas = map[string]bool{
	"information_schema": true,
	"performance_schema": true,
	"mysql":              true,
	"sys":                true,
}

// privilegeColumns maps mysql.user flag columns to privilege names, in the
// order they are selected.
var privilegeColumns = []struct {
	Column    string
	Privilege string
}{
	{"Select_priv", "SELECT"},
	{"Insert_priv", "INSERT"},
	{"Update_priv", "UPDATE"},
	{"Delete_priv", "DELETE"},
	{"Create_priv", "CREATE"},
	{"Drop_priv", "DROP"},
	{"Reload_priv", "RELOAD"},
	{"Shutdown_priv", "SHUTDOWN"},
	{"Process_priv", "PROCESS"},
	{"File_priv", "FILE"},
	{"Grant_priv", "GRANT"},
	{"References_priv", "REFERENCES"},
	{"Index_priv", "INDEX"},
	{"Alter_priv", "ALTER"},
	{"Show_db_priv", "SHOW DATABASES"},
	{"Super_priv", "SUPER"},
	{"Execute_priv", "EXECUTE"},
	{"Repl_slave_priv", "REPLICATION SLAVE"},
	{"Repl_client_priv", "REPLICATION CLIENT"},
}

// Sampler is a connected MySQL adapter. It satisfies core.Sampler and
// io.Closer.
type Sampler struct {
	db *sql.DB
}

// Open connects to the datasource and verifies the connection with a ping.
func Open(ctx context.Context, ds config.Datasource) (*Sampler, error) {
	db, err := sql.Open("mysql", dsn(ds))
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", ds.Address(), err)
	}

	return &Sampler{db: db}, nil
}

// dsn builds the driver connection string: 10s connect timeout, 30s
// read/write timeouts.
func dsn(ds config.Datasource) string {
	return fmt.Sprintf("%s:%s@tcp(%s)/?charset=utf8mb4&timeout=10s&readTimeout=30s&writeTimeout=30s",
		ds.Username, ds.Password, ds.Address())
}

// Close releases the connection pool.
func (s *Sampler) Close() error {
	return s.db.Close()
}

// ListDatabases returns the business databases, system schemas excluded.
func (s *Sampler) ListDatabases(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SHOW DATABASES")
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan database name: %w", err)
		}
		if !systemSchemas[name] {
			names = append(names, name)
		}
	}
	return names, rows.Err()
}

// ListTables returns the table names of one database.
func (s *Sampler) ListTables(ctx context.Context, database string) ([]string, error) {
	query := fmt.Sprintf("SHOW TABLES FROM %s", quoteIdent(database))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables of %s: %w", database, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// RowCount returns the total number of rows in a table.
func (s *Sampler) RowCount(ctx context.Context, database, table string) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s.%s", quoteIdent(database), quoteIdent(table))
	var count int64
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows of %s.%s: %w", database, table, err)
	}
	return count, nil
}

// SampleRows reads at most n rows starting at a random offset so repeated
// audits do not keep inspecting the same head of the table. An empty table
// yields the field list with no rows.
func (s *Sampler) SampleRows(ctx context.Context, database, table string, n int) (core.TableSample, error) {
	sample := core.TableSample{Database: database, Table: table}

	count, err := s.RowCount(ctx, database, table)
	if err != nil {
		return sample, err
	}
	sample.RowCount = count

	if n <= 0 {
		n = 1
	}

	query := fmt.Sprintf("SELECT * FROM %s.%s LIMIT %d OFFSET %d",
		quoteIdent(database), quoteIdent(table), n, sampleOffset(count, n))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return sample, fmt.Errorf("failed to sample %s.%s: %w", database, table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return sample, fmt.Errorf("failed to read columns of %s.%s: %w", database, table, err)
	}
	sample.Fields = columns

	values := make([]sql.RawBytes, len(columns))
	scanArgs := make([]any, len(columns))
	for i := range values {
		scanArgs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return sample, fmt.Errorf("failed to scan sample row of %s.%s: %w", database, table, err)
		}
		row := make(map[string]string, len(columns))
		for i, col := range columns {
			// NULL scans as nil RawBytes and becomes the empty string.
			row[col] = string(values[i])
		}
		sample.Rows = append(sample.Rows, row)
	}

	return sample, rows.Err()
}

// ListGrants reads the global privilege flags of every user from mysql.user.
func (s *Sampler) ListGrants(ctx context.Context) ([]core.GrantRow, error) {
	cols := make([]string, 0, len(privilegeColumns)+2)
	cols = append(cols, "User", "Host")
	for _, pc := range privilegeColumns {
		cols = append(cols, pc.Column)
	}

	query := fmt.Sprintf("SELECT %s FROM mysql.user ORDER BY User, Host", strings.Join(cols, ", "))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}
	defer rows.Close()

	var grants []core.GrantRow
	for rows.Next() {
		var (
			user, host string
			flags      = make([]string, len(privilegeColumns))
			scanArgs   = make([]any, 0, len(privilegeColumns)+2)
		)
		scanArgs = append(scanArgs, &user, &host)
		for i := range flags {
			scanArgs = append(scanArgs, &flags[i])
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to scan grant row: %w", err)
		}

		grants = append(grants, core.GrantRow{
			User:       user,
			Host:       host,
			Scope:      core.GlobalScope,
			Privileges: privilegesFromFlags(flags),
		})
	}
	return grants, rows.Err()
}

// privilegesFromFlags converts the Y/N flag columns into privilege names.
func privilegesFromFlags(flags []string) []string {
	var privs []string
	for i, flag := range flags {
		if strings.EqualFold(flag, "Y") {
			privs = append(privs, privilegeColumns[i].Privilege)
		}
	}
	return privs
}

// sampleOffset picks a random start row leaving room for n rows.
func sampleOffset(count int64, n int) int64 {
	max := count - int64(n)
	if max <= 0 {
		return 0
	}
	return rand.Int63n(max + 1)
}

// quoteIdent wraps an identifier in backticks, escaping embedded backticks.
func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

var _ core.Sampler = (*Sampler)(nil)
