package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDatasources(t *testing.T) {
	text := `# production databases
prod-mysql,10.0.0.10,3306,auditor,s3cret

staging,10.0.0.20,3307,auditor,pa,ss,word
`

	datasources, bad := ParseDatasources(text)
	require.Empty(t, bad)
	require.Len(t, datasources, 2)

	assert.Equal(t, Datasource{
		Name:     "prod-mysql",
		Host:     "10.0.0.10",
		Port:     3306,
		Username: "auditor",
		Password: "s3cret",
	}, datasources[0])

	// Commas in the password survive.
	assert.Equal(t, "pa,ss,word", datasources[1].Password)
	assert.Equal(t, "10.0.0.10:3306", datasources[0].Address())
}

func TestParseDatasourcesBadLines(t *testing.T) {
	text := `ok,10.0.0.10,3306,u,p
missing-fields,10.0.0.11
bad-port,10.0.0.12,notaport,u,p
huge-port,10.0.0.13,70000,u,p
also-ok,10.0.0.14,3306,u,p`

	datasources, bad := ParseDatasources(text)

	require.Len(t, datasources, 2)
	assert.Equal(t, "ok", datasources[0].Name)
	assert.Equal(t, "also-ok", datasources[1].Name)

	require.Len(t, bad, 3)
	assert.Equal(t, 2, bad[0].Line)
	assert.Contains(t, bad[0].Reason, "5 comma-separated fields")
	assert.Equal(t, 3, bad[1].Line)
	assert.Contains(t, bad[1].Reason, "invalid port")
	assert.Equal(t, 4, bad[2].Line)
}

func TestParseDatasourcesTrimsFields(t *testing.T) {
	datasources, bad := ParseDatasources("  prod , 10.0.0.10 , 3306 , user , pass  ")
	require.Empty(t, bad)
	require.Len(t, datasources, 1)
	assert.Equal(t, "prod", datasources[0].Name)
	assert.Equal(t, "10.0.0.10", datasources[0].Host)
	assert.Equal(t, "pass", datasources[0].Password)
}

func TestLoadDatasources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datasources.txt")
	require.NoError(t, os.WriteFile(path, []byte("prod,127.0.0.1,3306,u,p\n"), 0o644))

	datasources, bad, err := LoadDatasources(path)
	require.NoError(t, err)
	assert.Empty(t, bad)
	require.Len(t, datasources, 1)
	assert.Equal(t, "prod", datasources[0].Name)

	_, _, err = LoadDatasources(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
