package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeGrantsHighRisk(t *testing.T) {
	grants, risks := AnalyzeGrants([]GrantRow{
		{User: "app", Host: "10.0.0.5", Scope: "appdb.*",
			Privileges: []string{"SELECT", "INSERT", "UPDATE", "DELETE"}},
	})

	require.Len(t, grants, 1)
	require.Len(t, risks, 1)

	rec := risks[0]
	assert.Equal(t, RiskPermission, rec.RiskType)
	assert.Equal(t, SeverityHigh, rec.Severity)
	assert.Equal(t, PermissionSubject, rec.Subject)
	assert.Equal(t, "数据库权限", rec.Category)
	assert.Contains(t, rec.Description, "app@10.0.0.5")
}

func TestAnalyzeGrantsGlobalRead(t *testing.T) {
	_, risks := AnalyzeGrants([]GrantRow{
		{User: "reporter", Host: "10.0.0.9", Scope: GlobalScope,
			Privileges: []string{"SELECT"}},
	})

	require.Len(t, risks, 1)
	assert.Equal(t, SeverityMedium, risks[0].Severity)
	assert.Contains(t, risks[0].Description, "SELECT ON *.*")
}

func TestAnalyzeGrantsNarrowRead(t *testing.T) {
	_, risks := AnalyzeGrants([]GrantRow{
		{User: "readonly", Host: "10.0.0.9", Scope: "appdb.*",
			Privileges: []string{"SELECT"}},
	})

	require.Len(t, risks, 1)
	assert.Equal(t, SeverityLow, risks[0].Severity)
}

func TestAnalyzeGrantsWildcardHost(t *testing.T) {
	_, risks := AnalyzeGrants([]GrantRow{
		{User: "remote", Host: "%", Scope: "appdb.*",
			Privileges: []string{"SELECT"}},
	})

	// One narrow-read record plus the wildcard-host record.
	require.Len(t, risks, 2)

	var hostRisk *RiskRecord
	for i := range risks {
		if risks[i].Category == "主机权限" {
			hostRisk = &risks[i]
		}
	}
	require.NotNil(t, hostRisk)
	assert.Equal(t, SeverityMedium, hostRisk.Severity)
	assert.Contains(t, hostRisk.Description, "remote")
}

func TestAnalyzeGrantsWildcardHostWithoutDataPrivileges(t *testing.T) {
	_, risks := AnalyzeGrants([]GrantRow{
		{User: "monitor", Host: "%", Scope: GlobalScope,
			Privileges: []string{"REPLICATION CLIENT"}},
	})

	assert.Empty(t, risks)
}

func TestAnalyzeGrantsInventoryKeepsSafeUsers(t *testing.T) {
	grants, risks := AnalyzeGrants([]GrantRow{
		{User: "nobody", Host: "localhost", Scope: GlobalScope, Privileges: nil},
		{User: "admin", Host: "localhost", Scope: GlobalScope,
			Privileges: []string{"SELECT", "SUPER"}},
	})

	require.Len(t, grants, 2)
	assert.Equal(t, "nobody", grants[0].User)
	require.Len(t, risks, 1)
	assert.Equal(t, SeverityHigh, risks[0].Severity)
}

func TestAnalyzeGrantsNormalizesPrivilegeNames(t *testing.T) {
	grants, _ := AnalyzeGrants([]GrantRow{
		{User: "app", Host: "localhost", Scope: "appdb.*",
			Privileges: []string{" select ", "Insert"}},
	})

	require.Len(t, grants, 1)
	assert.True(t, grants[0].HasPrivilege("SELECT"))
	assert.True(t, grants[0].HasPrivilege("INSERT"))
	assert.False(t, grants[0].HasPrivilege("DROP"))
}
