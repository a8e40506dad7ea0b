package core

import "fmt"

// RuleConfigError reports a fatal problem in the sensitive-rule document.
// No audit can proceed without a valid rule catalog, so callers are expected
// to abort the whole run when they see one.
type RuleConfigError struct {
	// Rule that caused the failure, empty for document-level problems
	Rule string

	// Human-readable reason
	Reason string

	// Underlying error, if any (e.g. a regexp compile error)
	Err error
}

func (e *RuleConfigError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("sensitive rule %q: %s", e.Rule, e.Reason)
	}
	return fmt.Sprintf("sensitive rule config: %s", e.Reason)
}

func (e *RuleConfigError) Unwrap() error {
	return e.Err
}

func newRuleConfigError(rule, reason string, err error) *RuleConfigError {
	return &RuleConfigError{Rule: rule, Reason: reason, Err: err}
}
