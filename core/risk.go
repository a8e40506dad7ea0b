package core

import "sort"

// Severity ranks a risk record. The order is total: High > Medium > Low.
type Severity int

const (
	// SeverityLow for advisory findings
	SeverityLow Severity = iota + 1

	// SeverityMedium for probable sensitive data or broad read grants
	SeverityMedium

	// SeverityHigh for confirmed sensitive data or dangerous privileges
	SeverityHigh
)

// String renders the severity the way reports display it.
func (s Severity) String() string {
	switch s {
	case SeverityHigh:
		return "高"
	case SeverityMedium:
		return "中"
	case SeverityLow:
		return "低"
	}
	return "-"
}

// RiskType distinguishes the two streams feeding the risk inventory.
type RiskType int

const (
	// RiskSensitiveData marks findings from table sampling
	RiskSensitiveData RiskType = iota

	// RiskPermission marks findings from user privilege analysis
	RiskPermission
)

// String renders the risk type the way reports display it.
func (t RiskType) String() string {
	switch t {
	case RiskSensitiveData:
		return "敏感信息"
	case RiskPermission:
		return "权限风险"
	}
	return "未知"
}

// PermissionSubject is the subject marker used by permission risk records in
// place of a table name.
const PermissionSubject = "用户权限"

// RiskRecord is one entry of the final ranked risk inventory. Records are
// immutable once built.
type RiskRecord struct {
	RiskType RiskType
	Severity Severity

	// Subject is the table name for sensitive-data records, or 用户权限 for
	// permission records
	Subject string

	// Database the finding belongs to, empty for permission records
	Database string

	// Table and Field locate sensitive-data findings; "-" for permission
	// records
	Table string
	Field string

	// Category is the rule name for sensitive-data records or the privilege
	// category for permission records
	Category string

	Description string

	// SampleValue is a masked excerpt of the detected value, when present
	SampleValue string

	// AffectedCount is the total row count of the affected table; zero for
	// permission records
	AffectedCount int64

	Recommendation string
}

// SortRiskRecords orders the inventory: severity descending, then risk type,
// then subject ascending, then field ascending. The sort is stable, so ties
// keep insertion order and re-sorting is idempotent.
func SortRiskRecords(records []RiskRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.RiskType != b.RiskType {
			return a.RiskType < b.RiskType
		}
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		return a.Field < b.Field
	})
}
