package dbaudit

import (
	"fmt"

	"github.com/seclens/dbaudit/config"
)

// ConnectionError reports that a datasource could not be reached or
// authenticated. One failing datasource never aborts the others.
type ConnectionError struct {
	Datasource config.Datasource
	Err        error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to datasource %s (%s): %v",
		e.Datasource.Name, e.Datasource.Address(), e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// SamplingError reports that one table could not be sampled. The table is
// recorded as skipped and the audit of the datasource continues.
type SamplingError struct {
	Database string
	Table    string
	Err      error
}

func (e *SamplingError) Error() string {
	return fmt.Sprintf("failed to sample table %s.%s: %v", e.Database, e.Table, e.Err)
}

func (e *SamplingError) Unwrap() error { return e.Err }
