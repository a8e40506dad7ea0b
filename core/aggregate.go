package core

import "fmt"

// TableSensitivitySummary folds every confirmed detection for one table into
// a per-table view consumed by the report writer.
type TableSensitivitySummary struct {
	Database string
	Table    string

	// Fields lists the column names in table order
	Fields []string

	// SampledValues maps field names to the display form of the first
	// sampled row, mirroring what the classifier inspected
	SampledValues map[string]string

	// Findings is keyed by rule name, then field name
	Findings map[string]map[string]ConfirmedDetection

	// Confirmed is true when any finding confirmed
	Confirmed bool

	// RowCount is the table's total row count
	RowCount int64
}

// SkippedTable notes a table whose sampling failed. The omission is
// informational, not a ranked risk.
type SkippedTable struct {
	Database string
	Table    string
	Reason   string
}

// Aggregator runs the full per-table pipeline and merges the sensitive-data
// and permission streams into one ranked risk inventory. ScanTable carries no
// shared mutable state and may run on any number of workers; BuildReport is
// the single, final merge step.
type Aggregator struct {
	catalog    *RuleCatalog
	classifier *Classifier
	validator  *Validator
}

// NewAggregator creates an aggregator over a loaded rule catalog.
func NewAggregator(catalog *RuleCatalog) *Aggregator {
	return &Aggregator{
		catalog:    catalog,
		classifier: NewClassifier(catalog),
		validator:  NewValidator(catalog),
	}
}

// ScanTable classifies a sample, confirms each detection against the
// originating field values, and folds the results into a summary.
func (a *Aggregator) ScanTable(sample TableSample) TableSensitivitySummary {
	summary := TableSensitivitySummary{
		Database:      sample.Database,
		Table:         sample.Table,
		Fields:        sample.Fields,
		SampledValues: firstRowValues(sample),
		Findings:      make(map[string]map[string]ConfirmedDetection),
		RowCount:      sample.RowCount,
	}

	for _, det := range a.classifier.ClassifyTable(sample) {
		values := rawFieldValues(sample, det.Field)
		confirmed := a.validator.Confirm(det, values)

		byField, ok := summary.Findings[det.Rule]
		if !ok {
			byField = make(map[string]ConfirmedDetection)
			summary.Findings[det.Rule] = byField
		}
		byField[det.Field] = confirmed

		if confirmed.Confirmed {
			summary.Confirmed = true
		}
	}

	return summary
}

// BuildReport merges the per-table summaries, the permission stream and the
// skipped-table notes into one immutable ReportModel with a ranked risk list.
func (a *Aggregator) BuildReport(datasource string, summaries []TableSensitivitySummary, grantRows []GrantRow, skipped []SkippedTable) *ReportModel {
	var risks []RiskRecord

	for _, summary := range summaries {
		risks = append(risks, a.tableRisks(summary)...)
	}

	grants, permissionRisks := AnalyzeGrants(grantRows)
	risks = append(risks, permissionRisks...)

	SortRiskRecords(risks)

	return newReportModel(datasource, risks, summaries, grants, skipped)
}

// tableRisks emits one record per (table, field, rule) finding. Confirmed
// detections rank High when both phases matched and Medium on a value-only
// match; unconfirmed field-name matches surface as Low advisories only when
// the catalog is configured to do so.
func (a *Aggregator) tableRisks(summary TableSensitivitySummary) []RiskRecord {
	var records []RiskRecord

	// Deterministic order: rule declaration order, field table order.
	for _, rule := range a.catalog.EnabledRules() {
		byField, ok := summary.Findings[rule.Name]
		if !ok {
			continue
		}
		for _, field := range summary.Fields {
			det, ok := byField[field]
			if !ok {
				continue
			}

			switch {
			case det.Confirmed && det.FieldMatch && det.ValueMatch:
				records = append(records, a.confirmedRisk(summary, det, SeverityHigh))
			case det.Confirmed:
				records = append(records, a.confirmedRisk(summary, det, SeverityMedium))
			case det.FieldMatch && a.catalog.Settings().SurfaceUnconfirmed:
				records = append(records, a.advisoryRisk(summary, det))
			}
		}
	}

	return records
}

func (a *Aggregator) confirmedRisk(summary TableSensitivitySummary, det ConfirmedDetection, severity Severity) RiskRecord {
	return RiskRecord{
		RiskType: RiskSensitiveData,
		Severity: severity,
		Subject:  summary.Table,
		Database: summary.Database,
		Table:    summary.Table,
		Field:    det.Field,
		Category: det.Rule,
		Description: fmt.Sprintf("表 %s 的字段 %s 包含敏感信息: %s",
			summary.Table, det.Field, det.Rule),
		SampleValue:    MaskValue(det.SampleValue),
		AffectedCount:  summary.RowCount,
		Recommendation: fmt.Sprintf("对包含%s的字段进行加密或脱敏处理", det.Rule),
	}
}

func (a *Aggregator) advisoryRisk(summary TableSensitivitySummary, det ConfirmedDetection) RiskRecord {
	return RiskRecord{
		RiskType: RiskSensitiveData,
		Severity: SeverityLow,
		Subject:  summary.Table,
		Database: summary.Database,
		Table:    summary.Table,
		Field:    det.Field,
		Category: det.Rule,
		Description: fmt.Sprintf("表 %s 的字段名 %s 疑似与%s相关，未在采样数据中确认",
			summary.Table, det.Field, det.Rule),
		SampleValue:    DisplayValue(det.SampleValue),
		AffectedCount:  summary.RowCount,
		Recommendation: "人工复核该字段的实际内容",
	}
}

func firstRowValues(sample TableSample) map[string]string {
	values := make(map[string]string, len(sample.Fields))
	if len(sample.Rows) == 0 {
		return values
	}
	for _, field := range sample.Fields {
		values[field] = DisplayValue(sample.Rows[0][field])
	}
	return values
}

func rawFieldValues(sample TableSample, field string) []string {
	values := make([]string, 0, len(sample.Rows))
	for _, row := range sample.Rows {
		values = append(values, row[field])
	}
	return values
}
