package core

// DetectionResult records that one rule flagged one field of a sampled table.
// At least one of FieldMatch and ValueMatch is always true; pairs with
// neither match are never emitted.
type DetectionResult struct {
	Database string
	Table    string
	Field    string
	Rule     string

	// FieldMatch is true when the column name contains a rule keyword
	FieldMatch bool

	// ValueMatch is true when a sampled value matched a rule pattern under
	// an unanchored search
	ValueMatch bool

	// SampleValue is the prepared (trimmed, truncated) value that matched,
	// or the first sampled value for field-only matches. Empty when every
	// sampled value was NULL or empty.
	SampleValue string
}

// Classifier applies the dual field-name / value matching pass to table
// samples. It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	catalog *RuleCatalog
}

// NewClassifier creates a classifier over a loaded rule catalog.
func NewClassifier(catalog *RuleCatalog) *Classifier {
	return &Classifier{catalog: catalog}
}

// ClassifyTable runs both matching phases over every field of the sample and
// returns one DetectionResult per (field, rule) pair with at least one match.
// Results are ordered by field (table order) then rule (declaration order),
// so the output is deterministic for a given sample.
func (c *Classifier) ClassifyTable(sample TableSample) []DetectionResult {
	var results []DetectionResult

	for _, field := range sample.Fields {
		values := c.fieldValues(sample, field)
		results = append(results, c.classifyField(sample, field, values)...)
	}

	return results
}

// fieldValues collects the prepared sampled values of one field, preserving
// row order. Empty and NULL values are kept so a field-only match can still
// report the first sampled value.
func (c *Classifier) fieldValues(sample TableSample, field string) []string {
	values := make([]string, 0, len(sample.Rows))
	for _, row := range sample.Rows {
		values = append(values, c.catalog.PrepareValue(row[field]))
	}
	return values
}

func (c *Classifier) classifyField(sample TableSample, field string, values []string) []DetectionResult {
	nameMatched := make(map[string]bool)
	for _, name := range c.catalog.MatchFieldName(field) {
		nameMatched[name] = true
	}

	var results []DetectionResult
	for _, rule := range c.catalog.EnabledRules() {
		fieldMatch := nameMatched[rule.Name]
		valueMatch, matchedValue := c.matchValues(rule, values)

		if !fieldMatch && !valueMatch {
			continue
		}

		sampleValue := matchedValue
		if !valueMatch {
			sampleValue = firstValue(values)
		}

		results = append(results, DetectionResult{
			Database:    sample.Database,
			Table:       sample.Table,
			Field:       field,
			Rule:        rule.Name,
			FieldMatch:  fieldMatch,
			ValueMatch:  valueMatch,
			SampleValue: sampleValue,
		})
	}
	return results
}

// matchValues runs the heuristic value phase: unanchored pattern search over
// every prepared, non-empty value that is not excluded as test data. Returns
// the first matching value.
func (c *Classifier) matchValues(rule *SensitiveRule, values []string) (bool, string) {
	for _, v := range values {
		if v == "" {
			continue
		}
		if c.catalog.IsTestData(v) {
			continue
		}
		if rule.MatchValue(v) {
			return true, v
		}
	}
	return false, ""
}

func firstValue(values []string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
