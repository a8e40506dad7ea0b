package core

// ConfirmedDetection wraps a DetectionResult with the outcome of the strict
// secondary validation pass.
type ConfirmedDetection struct {
	DetectionResult

	// Confirmed is true only when a sampled value fully matched one of the
	// rule's patterns and was neither empty nor excluded as test data
	Confirmed bool
}

// Validator re-validates detections with anchored full-string matching and
// test-data filtering. It is a pure function over its inputs: re-running
// confirmation on the same value and rule always yields the same result.
type Validator struct {
	catalog *RuleCatalog
}

// NewValidator creates a validator over a loaded rule catalog.
func NewValidator(catalog *RuleCatalog) *Validator {
	return &Validator{catalog: catalog}
}

// ConfirmValue reports whether a single raw value counts as genuine sensitive
// data for the named rule: non-empty after preparation, not test data, and a
// full anchored match of at least one rule pattern. Unknown rule names never
// confirm.
func (v *Validator) ConfirmValue(ruleName, value string) bool {
	rule, ok := v.catalog.Rule(ruleName)
	if !ok {
		return false
	}

	prepared := v.catalog.PrepareValue(value)
	if prepared == "" {
		return false
	}
	if v.catalog.IsTestData(prepared) {
		return false
	}
	return rule.ConfirmValue(prepared)
}

// Confirm validates a detection against the sampled values of its field. A
// field-only match with no value satisfying any pattern stays unconfirmed.
func (v *Validator) Confirm(det DetectionResult, values []string) ConfirmedDetection {
	confirmed := ConfirmedDetection{DetectionResult: det}

	for _, value := range values {
		if v.ConfirmValue(det.Rule, value) {
			confirmed.Confirmed = true
			// Prefer the value that actually confirmed for reporting.
			confirmed.SampleValue = v.catalog.PrepareValue(value)
			break
		}
	}

	return confirmed
}
