// This file adds a lightweight linter for Job values: static checks over a
// decoded Job returning a list of issues (errors and warnings) that callers
// surface in the CLI or in tests.
package config

import (
	"fmt"
	"strings"

	"github.com/TheBurd/mango-cannabis-flower-menu-builder-sub000/internal/importer"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path is a dotted path into
// the config (e.g. "storage.kind", "mapping").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements error so an Issue can stand alone where an error is
// expected.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// knownFields enumerates the mapping targets the importer reads.
var knownFields = map[string]struct{}{
	importer.FieldName:     {},
	importer.FieldShelf:    {},
	importer.FieldGrower:   {},
	importer.FieldBrand:    {},
	importer.FieldTHC:      {},
	importer.FieldTerpenes: {},
	importer.FieldPrice:    {},
	importer.FieldType:     {},
	importer.FieldSoldOut:  {},
	importer.FieldLastJar:  {},
	importer.FieldLowStock: {},
	importer.FieldNotes:    {},
}

// ValidateJob performs static validation of a Job without mutating it.
// Callers decide whether warnings are fatal.
func ValidateJob(j Job) []Issue {
	var issues []Issue

	if strings.TrimSpace(j.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels metrics and log lines",
		})
	}
	if strings.TrimSpace(j.Source.Path) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.path",
			Message:  "source requires a non-empty csv path",
		})
	}
	if !j.Mode.Valid() {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "mode",
			Message:  fmt.Sprintf("mode must be %q or %q", importer.ModeBulk, importer.ModePrepackaged),
		})
	}

	issues = append(issues, validateMapping(j.Mapping)...)
	issues = append(issues, validateShelves(j.Shelves)...)
	issues = append(issues, validateRuntime(j.Runtime)...)
	issues = append(issues, validateStorage(j.Storage)...)
	issues = append(issues, validateMetrics(j.Metrics)...)

	return issues
}

func validateMapping(m map[string]string) []Issue {
	var issues []Issue

	if len(m) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "mapping",
			Message:  "mapping must not be empty",
		})
		return issues
	}

	seen := map[string]string{}
	hasName := false
	for col, field := range m {
		if field == importer.FieldName {
			hasName = true
		}
		if _, ok := knownFields[field]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     fmt.Sprintf("mapping[%q]", col),
				Message:  fmt.Sprintf("unknown field %q is never read", field),
			})
		}
		if prev, dup := seen[field]; dup {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     fmt.Sprintf("mapping[%q]", col),
				Message:  fmt.Sprintf("field %q already mapped from column %q; one mapping wins", field, prev),
			})
		}
		seen[field] = col
	}
	if !hasName {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "mapping",
			Message:  "no column maps to \"name\"; every row would be skipped",
		})
	}
	if _, ok := seen[importer.FieldShelf]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "mapping",
			Message:  "no column maps to \"shelf\"; rows resolve only if a shelf is created from an empty label, which never happens",
		})
	}

	return issues
}

func validateShelves(shelves []importer.Shelf) []Issue {
	var issues []Issue

	seenID := map[string]struct{}{}
	seenName := map[string]string{}
	for i, s := range shelves {
		if strings.TrimSpace(s.ID) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("shelves[%d].id", i),
				Message:  "shelf id must not be empty",
			})
		}
		if strings.TrimSpace(s.Name) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("shelves[%d].name", i),
				Message:  "shelf name must not be empty",
			})
		}
		if _, dup := seenID[s.ID]; dup {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("shelves[%d].id", i),
				Message:  fmt.Sprintf("duplicate shelf id %q", s.ID),
			})
		}
		seenID[s.ID] = struct{}{}

		key := strings.ToLower(strings.TrimSpace(s.Name))
		if prev, dup := seenName[key]; dup {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("shelves[%d].name", i),
				Message:  fmt.Sprintf("shelf name %q collides case-insensitively with %q", s.Name, prev),
			})
		}
		seenName[key] = s.Name
	}

	return issues
}

func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	if r.ChunkSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.chunk_size",
			Message:  "chunk_size must be >= 0 (0 selects the default)",
		})
	}
	if r.CancelGraceMS < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.cancel_grace_ms",
			Message:  "cancel_grace_ms must be >= 0 (0 selects the default)",
		})
	}

	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	if s.Kind == "" {
		return nil
	}
	known := map[string]struct{}{
		"sqlite": {}, "postgres": {}, "mysql": {}, "mssql": {},
	}
	if _, ok := known[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}
	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.dsn",
			Message:  "storage requires a non-empty dsn",
		})
	}

	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue

	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "pushgateway backend requires pushgateway_url",
			})
		}
	case "datadog":
		if strings.TrimSpace(m.DogstatsdAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.dogstatsd_addr",
				Message:  "datadog backend requires dogstatsd_addr",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q", m.Backend),
		})
	}

	return issues
}
