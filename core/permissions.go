package core

import (
	"fmt"
	"strings"
)

// PermissionGrant is the cleaned-up privilege inventory entry for one
// user/host pair. Every user appears here, risky or not.
type PermissionGrant struct {
	User  string
	Host  string
	Scope string

	// Privileges present for this grant, upper-case names in adapter order
	Privileges []string
}

// HasPrivilege reports whether the grant includes the named privilege.
func (g PermissionGrant) HasPrivilege(name string) bool {
	for _, p := range g.Privileges {
		if strings.EqualFold(p, name) {
			return true
		}
	}
	return false
}

// GlobalScope is the grant scope covering every database and table.
const GlobalScope = "*.*"

// highRiskPrivileges grant data modification, schema change or server
// control. Any of them on a non-system scope maps to a High severity record.
var highRiskPrivileges = []string{
	"INSERT", "UPDATE", "DELETE", "DROP", "ALTER", "GRANT",
	"SUPER", "FILE", "SHUTDOWN", "RELOAD", "PROCESS",
}

// dataPrivileges are the plain data-operation privileges checked for the
// wildcard-host rule.
var dataPrivileges = []string{"SELECT", "INSERT", "UPDATE", "DELETE"}

// AnalyzeGrants maps raw grant rows to the permission inventory plus zero or
// more permission risk records. A user with no risky privilege still appears
// in the inventory.
//
// Severity mapping: high-risk privileges on non-system scope → High; SELECT
// on *.* with nothing riskier → Medium; narrowly scoped read-only grants →
// Low. A wildcard host (%) combined with any data privilege additionally
// yields a Medium record.
func AnalyzeGrants(rows []GrantRow) ([]PermissionGrant, []RiskRecord) {
	grants := make([]PermissionGrant, 0, len(rows))
	var risks []RiskRecord

	for _, row := range rows {
		grant := PermissionGrant{
			User:       row.User,
			Host:       row.Host,
			Scope:      row.Scope,
			Privileges: normalizePrivileges(row.Privileges),
		}
		grants = append(grants, grant)

		if rec, ok := privilegeRisk(grant); ok {
			risks = append(risks, rec)
		}
		if rec, ok := wildcardHostRisk(grant); ok {
			risks = append(risks, rec)
		}
	}

	return grants, risks
}

func normalizePrivileges(privs []string) []string {
	out := make([]string, 0, len(privs))
	for _, p := range privs {
		out = append(out, strings.ToUpper(strings.TrimSpace(p)))
	}
	return out
}

func privilegeRisk(grant PermissionGrant) (RiskRecord, bool) {
	var risky []string
	for _, p := range highRiskPrivileges {
		if grant.HasPrivilege(p) {
			risky = append(risky, p)
		}
	}

	account := fmt.Sprintf("%s@%s", grant.User, grant.Host)

	if len(risky) > 0 {
		return RiskRecord{
			RiskType: RiskPermission,
			Severity: SeverityHigh,
			Subject:  PermissionSubject,
			Table:    "-",
			Field:    "-",
			Category: "数据库权限",
			Description: fmt.Sprintf("用户 %s 拥有高危权限: %s",
				account, strings.Join(risky, ", ")),
			SampleValue:    fmt.Sprintf("%d个高危权限", len(risky)),
			Recommendation: "根据最小权限原则，移除不必要的高危权限",
		}, true
	}

	if !grant.HasPrivilege("SELECT") {
		return RiskRecord{}, false
	}

	if grant.Scope == GlobalScope {
		return RiskRecord{
			RiskType:       RiskPermission,
			Severity:       SeverityMedium,
			Subject:        PermissionSubject,
			Table:          "-",
			Field:          "-",
			Category:       "数据库权限",
			Description:    fmt.Sprintf("用户 %s 拥有全局查询权限(SELECT ON *.*)", account),
			SampleValue:    "全局查询权限",
			Recommendation: "将查询权限限制到具体的业务数据库",
		}, true
	}

	return RiskRecord{
		RiskType:       RiskPermission,
		Severity:       SeverityLow,
		Subject:        PermissionSubject,
		Table:          "-",
		Field:          "-",
		Category:       "数据库权限",
		Description:    fmt.Sprintf("用户 %s 拥有范围受限的查询权限(%s)", account, grant.Scope),
		SampleValue:    "受限查询权限",
		Recommendation: "定期复核只读账号的访问范围",
	}, true
}

func wildcardHostRisk(grant PermissionGrant) (RiskRecord, bool) {
	if grant.Host != "%" {
		return RiskRecord{}, false
	}

	hasData := false
	for _, p := range dataPrivileges {
		if grant.HasPrivilege(p) {
			hasData = true
			break
		}
	}
	if !hasData {
		return RiskRecord{}, false
	}

	return RiskRecord{
		RiskType: RiskPermission,
		Severity: SeverityMedium,
		Subject:  PermissionSubject,
		Table:    "-",
		Field:    "-",
		Category: "主机权限",
		Description: fmt.Sprintf(
			"用户 %s 允许从任意主机(%%)连接并具有数据操作权限", grant.User),
		SampleValue:    "通配符主机权限",
		Recommendation: "限制用户只能从特定主机连接，避免使用通配符(%)",
	}, true
}
