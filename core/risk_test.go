package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "高", SeverityHigh.String())
	assert.Equal(t, "中", SeverityMedium.String())
	assert.Equal(t, "低", SeverityLow.String())
}

func TestRiskTypeString(t *testing.T) {
	assert.Equal(t, "敏感信息", RiskSensitiveData.String())
	assert.Equal(t, "权限风险", RiskPermission.String())
}

func TestSortRiskRecords(t *testing.T) {
	records := []RiskRecord{
		{RiskType: RiskPermission, Severity: SeverityMedium, Subject: PermissionSubject},
		{RiskType: RiskSensitiveData, Severity: SeverityLow, Subject: "orders", Field: "note"},
		{RiskType: RiskSensitiveData, Severity: SeverityHigh, Subject: "users", Field: "phone"},
		{RiskType: RiskSensitiveData, Severity: SeverityHigh, Subject: "users", Field: "email"},
		{RiskType: RiskPermission, Severity: SeverityHigh, Subject: PermissionSubject},
		{RiskType: RiskSensitiveData, Severity: SeverityHigh, Subject: "accounts", Field: "phone"},
	}

	SortRiskRecords(records)

	assert.Equal(t, SeverityHigh, records[0].Severity)
	assert.Equal(t, "accounts", records[0].Subject)
	assert.Equal(t, "email", records[1].Field)
	assert.Equal(t, "phone", records[2].Field)
	assert.Equal(t, RiskPermission, records[3].RiskType)
	assert.Equal(t, SeverityMedium, records[4].Severity)
	assert.Equal(t, SeverityLow, records[5].Severity)
}

func TestSortRiskRecordsIdempotent(t *testing.T) {
	records := []RiskRecord{
		{RiskType: RiskSensitiveData, Severity: SeverityHigh, Subject: "b", Field: "x"},
		{RiskType: RiskSensitiveData, Severity: SeverityHigh, Subject: "b", Field: "x", Category: "second"},
		{RiskType: RiskSensitiveData, Severity: SeverityMedium, Subject: "a"},
	}

	SortRiskRecords(records)
	once := make([]RiskRecord, len(records))
	copy(once, records)

	SortRiskRecords(records)
	assert.Equal(t, once, records)
}
