package core

import "time"

// ReportModel is the immutable output handed to the report writer, one per
// audited datasource. It performs no I/O; rendering, styling and file naming
// belong to the writer.
type ReportModel struct {
	// Datasource is the configured datasource name
	Datasource string

	// GeneratedAt is the model construction time, used for file naming
	GeneratedAt time.Time

	// Risks is the ranked inventory, already sorted
	Risks []RiskRecord

	// Summaries holds one entry per scanned table, in scan order
	Summaries []TableSensitivitySummary

	// Grants is the full permission inventory
	Grants []PermissionGrant

	// Skipped notes tables whose sampling failed
	Skipped []SkippedTable
}

func newReportModel(datasource string, risks []RiskRecord, summaries []TableSensitivitySummary, grants []PermissionGrant, skipped []SkippedTable) *ReportModel {
	return &ReportModel{
		Datasource:  datasource,
		GeneratedAt: time.Now(),
		Risks:       risks,
		Summaries:   summaries,
		Grants:      grants,
		Skipped:     skipped,
	}
}

// Databases returns the distinct database names of the summaries, in scan
// order. The writer uses this for per-database sheet layout.
func (m *ReportModel) Databases() []string {
	seen := make(map[string]bool)
	var names []string
	for _, s := range m.Summaries {
		if !seen[s.Database] {
			seen[s.Database] = true
			names = append(names, s.Database)
		}
	}
	for _, s := range m.Skipped {
		if !seen[s.Database] {
			seen[s.Database] = true
			names = append(names, s.Database)
		}
	}
	return names
}

// TablesOf returns the summaries of one database, in scan order.
func (m *ReportModel) TablesOf(database string) []TableSensitivitySummary {
	var out []TableSensitivitySummary
	for _, s := range m.Summaries {
		if s.Database == database {
			out = append(out, s)
		}
	}
	return out
}

// SkippedOf returns the skipped-table notes of one database.
func (m *ReportModel) SkippedOf(database string) []SkippedTable {
	var out []SkippedTable
	for _, s := range m.Skipped {
		if s.Database == database {
			out = append(out, s)
		}
	}
	return out
}
