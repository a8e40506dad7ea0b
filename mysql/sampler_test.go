package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/seclens/dbaudit/config"
)

func TestDSN(t *testing.T) {
	ds := config.Datasource{
		Name:     "prod",
		Host:     "10.0.0.10",
		Port:     3306,
		Username: "auditor",
		Password: "s3cret",
	}

	got := dsn(ds)
	assert.Equal(t, "auditor:s3cret@tcp(10.0.0.10:3306)/?charset=utf8mb4&timeout=10s&readTimeout=30s&writeTimeout=30s", got)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, "`appdb`", quoteIdent("appdb"))
	assert.Equal(t, "`weird``name`", quoteIdent("weird`name"))
}

func TestPrivilegesFromFlags(t *testing.T) {
	flags := make([]string, len(privilegeColumns))
	for i := range flags {
		flags[i] = "N"
	}
	assert.Empty(t, privilegesFromFlags(flags))

	flags[0] = "Y" // Select_priv
	flags[3] = "y" // Delete_priv, flag casing varies across server versions
	privs := privilegesFromFlags(flags)
	assert.Equal(t, []string{"SELECT", "DELETE"}, privs)
}

func TestSampleOffset(t *testing.T) {
	t.Run("small tables start at zero", func(t *testing.T) {
		assert.EqualValues(t, 0, sampleOffset(0, 100))
		assert.EqualValues(t, 0, sampleOffset(50, 100))
		assert.EqualValues(t, 0, sampleOffset(100, 100))
	})

	t.Run("offset always leaves room for n rows", func(t *testing.T) {
		for i := 0; i < 200; i++ {
			off := sampleOffset(1000, 100)
			assert.GreaterOrEqual(t, off, int64(0))
			assert.LessOrEqual(t, off, int64(900))
		}
	})
}

func TestSystemSchemasExcluded(t *testing.T) {
	for _, schema := range []string{"information_schema", "performance_schema", "mysql", "sys"} {
		assert.True(t, systemSchemas[schema], schema)
	}
	assert.False(t, systemSchemas["appdb"])
}
