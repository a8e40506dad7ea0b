// Package config parses the datasource configuration consumed by the audit
// run: one datasource per line, `name,ip,port,username,password`, with #
// comments and blank lines ignored.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Datasource is one parsed configuration line.
type Datasource struct {
	Name     string
	Host     string
	Port     int
	Username string
	Password string
}

// Address returns host:port for logging and DSN building.
func (d Datasource) Address() string {
	return fmt.Sprintf("%s:%d", d.Host, d.Port)
}

// ParseError reports one malformed datasource line. The line is skipped and
// the run continues with the remaining datasources.
type ParseError struct {
	// Line number in the document, 1-based
	Line int

	// Text is the offending line
	Text string

	// Reason the line was rejected
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("datasource config line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// ParseDatasources parses a datasource document. Malformed lines are
// collected as ParseErrors rather than aborting; callers log them as
// warnings.
func ParseDatasources(text string) ([]Datasource, []*ParseError) {
	var (
		datasources []Datasource
		bad         []*ParseError
	)

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		ds, err := parseLine(i+1, line)
		if err != nil {
			bad = append(bad, err)
			continue
		}
		datasources = append(datasources, ds)
	}

	return datasources, bad
}

// LoadDatasources reads and parses a datasource file.
func LoadDatasources(path string) ([]Datasource, []*ParseError, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read datasource file: %w", err)
	}
	ds, bad := ParseDatasources(string(data))
	return ds, bad, nil
}

func parseLine(lineNo int, line string) (Datasource, *ParseError) {
	// Passwords may contain commas, so the line splits into at most 5 fields.
	parts := strings.SplitN(line, ",", 5)
	if len(parts) < 5 {
		return Datasource{}, &ParseError{Line: lineNo, Text: line, Reason: "expected 5 comma-separated fields"}
	}

	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	port, err := strconv.Atoi(parts[2])
	if err != nil || port <= 0 || port > 65535 {
		return Datasource{}, &ParseError{Line: lineNo, Text: line, Reason: "invalid port"}
	}

	return Datasource{
		Name:     parts[0],
		Host:     parts[1],
		Port:     port,
		Username: parts[3],
		Password: parts[4],
	}, nil
}
