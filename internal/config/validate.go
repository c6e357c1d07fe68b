package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding that should be surfaced but does not
	// block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "mapping.status",
// "source.db.dsn"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Issues is the result of Validate.
type Issues []Issue

// HasErrors reports whether any issue has SeverityError.
func (is Issues) HasErrors() bool {
	for _, i := range is {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Err joins the error-severity issues, or returns nil when there are none.
func (is Issues) Err() error {
	var errs []error
	for _, i := range is {
		if i.Severity == SeverityError {
			errs = append(errs, i)
		}
	}
	return errors.Join(errs...)
}

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate performs static validation of a Config. It does not mutate c and
// does not touch the data source; callers decide whether warnings are fatal.
func Validate(c Config) Issues {
	var issues Issues

	issues = append(issues, validateTags(c)...)
	if strings.TrimSpace(c.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels logs and metrics",
		})
	}
	issues = append(issues, validateSource(c.Source)...)
	issues = append(issues, validateParser(c.Source.Kind, c.Parser)...)
	issues = append(issues, validateMapping(c.Mapping)...)
	issues = append(issues, validatePoorRatings(c.PoorRatings)...)
	issues = append(issues, validateMetrics(c.Metrics)...)

	return issues
}

// validateTags runs the struct-tag rules and converts failures to issues.
func validateTags(c Config) []Issue {
	err := structValidator.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []Issue{{Severity: SeverityError, Path: "", Message: err.Error()}}
	}
	out := make([]Issue, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, Issue{
			Severity: SeverityError,
			Path:     tagPath(fe.Namespace()),
			Message:  fmt.Sprintf("failed %q rule (param %q, value %v)", fe.Tag(), fe.Param(), fe.Value()),
		})
	}
	return out
}

// tagPath converts "Config.Runtime.Shards" into "runtime.shards".
func tagPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = strings.ToLower(p)
	}
	return strings.Join(parts, ".")
}

func validateSource(s Source) []Issue {
	var issues []Issue

	switch s.Kind {
	case "":
		// reported by the required tag
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.file.path",
				Message:  "file source requires a non-empty path",
			})
		}
	case "http":
		u := strings.TrimSpace(s.HTTP.URL)
		if u == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.http.url",
				Message:  "http source requires a non-empty url",
			})
		} else if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.http.url",
				Message:  fmt.Sprintf("url %q must start with http:// or https://", u),
			})
		}
	case "sqlite", "postgres":
		if strings.TrimSpace(s.DB.DSN) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.db.dsn",
				Message:  fmt.Sprintf("%s source requires a non-empty dsn", s.Kind),
			})
		}
		if strings.TrimSpace(s.DB.Table) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.db.table",
				Message:  fmt.Sprintf("%s source requires a non-empty table", s.Kind),
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q (want file, http, sqlite or postgres)", s.Kind),
		})
	}

	return issues
}

func validateParser(sourceKind string, p Parser) []Issue {
	if sourceKind == "sqlite" || sourceKind == "postgres" {
		if p.Kind != "" {
			return []Issue{{
				Severity: SeverityWarning,
				Path:     "parser.kind",
				Message:  fmt.Sprintf("parser %q is ignored for %s sources", p.Kind, sourceKind),
			}}
		}
		return nil
	}

	var issues []Issue
	switch p.Kind {
	case "csv":
		if s := p.Options.String("comma", ","); len([]rune(s)) != 1 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "parser.options.comma",
				Message:  fmt.Sprintf("comma must be a single character, got %q", s),
			})
		}
	case "xlsx":
		if hr := p.Options.Int("header_row", 1); hr < 1 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "parser.options.header_row",
				Message:  "header_row is 1-based and must be >= 1",
			})
		}
	case "json":
	case "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  "parser.kind must not be empty",
		})
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  fmt.Sprintf("unknown parser kind %q (want csv, xlsx or json)", p.Kind),
		})
	}
	return issues
}

func validateMapping(m ColumnMapping) []Issue {
	var issues []Issue

	required := []struct{ name, label string }{
		{"group", m.Group},
		{"status", m.Status},
		{"rating", m.Rating},
		{"evidence", m.Evidence},
	}
	for _, r := range required {
		if strings.TrimSpace(r.label) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "mapping." + r.name,
				Message:  fmt.Sprintf("logical field %q must be bound to a column", r.name),
			})
		}
	}

	if m.Clarity != "" && m.Instructor == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "mapping.clarity",
			Message:  "clarity is bound but instructor is not; clarity averages will not be computed",
		})
	}

	// The same label bound twice is legal but almost always a copy/paste slip.
	seen := map[string]string{}
	for _, name := range []string{"group", "status", "rating", "clarity", "evidence", "instructor"} {
		label := m.Fields()[name]
		if label == "" {
			continue
		}
		if prev, ok := seen[label]; ok {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "mapping." + name,
				Message:  fmt.Sprintf("column %q is also bound to %q", label, prev),
			})
			continue
		}
		seen[label] = name
	}

	return issues
}

func validatePoorRatings(rs []float64) []Issue {
	if len(rs) == 0 {
		return []Issue{{
			Severity: SeverityWarning,
			Path:     "poor_ratings",
			Message:  "poor_ratings is empty; poor feedback counts will be zero",
		}}
	}
	seen := map[float64]bool{}
	for i, r := range rs {
		if seen[r] {
			return []Issue{{
				Severity: SeverityWarning,
				Path:     fmt.Sprintf("poor_ratings[%d]", i),
				Message:  fmt.Sprintf("duplicate rating %v", r),
			}}
		}
		seen[r] = true
	}
	return nil
}

func validateMetrics(m MetricsConfig) []Issue {
	switch m.Backend {
	case "pushgateway":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			return []Issue{{
				Severity: SeverityWarning,
				Path:     "metrics.pushgateway_url",
				Message:  "pushgateway backend without a URL; metrics will be disabled",
			}}
		}
	case "datadog":
		if strings.TrimSpace(m.DatadogAddr) == "" {
			return []Issue{{
				Severity: SeverityWarning,
				Path:     "metrics.datadog_addr",
				Message:  "datadog backend without an address; metrics will be disabled",
			}}
		}
	}
	return nil
}
