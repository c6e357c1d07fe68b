// Package config defines the configuration model for a feedback report run:
// where the survey export comes from, how to parse it, which physical columns
// carry each logical field, and the knobs for aggregation, metrics and the
// HTTP API.
//
// A run is described by one JSON (or YAML) file. Example (trimmed):
//
//	{
//	  "job":     "amit_feedback",
//	  "source":  { "kind": "file", "file": { "path": "Clean Feedback.csv" } },
//	  "parser":  { "kind": "csv", "options": { "comma": "," } },
//	  "mapping": {
//	    "group":    "Select your assigned group",
//	    "status":   "Techincal / Operation Solved",
//	    "rating":   "Experience Rating",
//	    "evidence": "Evidence Attachment"
//	  },
//	  "poor_ratings": [1, 2, 3]
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPoorRatings is used when a config omits poor_ratings.
var DefaultPoorRatings = []float64{1, 2, 3}

// Config is the top-level object decoded from a report config file.
type Config struct {
	// Job names the run in logs and metrics.
	Job string `json:"job" yaml:"job"`

	Source Source `json:"source" yaml:"source"`
	Parser Parser `json:"parser" yaml:"parser"`

	// Mapping binds logical survey fields to physical column labels.
	Mapping ColumnMapping `json:"mapping" yaml:"mapping"`

	// PoorRatings lists the rating values treated as a poor experience.
	PoorRatings []float64 `json:"poor_ratings" yaml:"poor_ratings"`

	Runtime RuntimeConfig `json:"runtime" yaml:"runtime"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
	Server  ServerConfig  `json:"server" yaml:"server"`
}

// ColumnMapping binds logical field names to the column labels present in one
// export. Group, Status, Rating and Evidence are required by the aggregator;
// Clarity and Instructor enable the instructor tables when set.
type ColumnMapping struct {
	Group      string `json:"group" yaml:"group"`
	Status     string `json:"status" yaml:"status"`
	Rating     string `json:"rating" yaml:"rating"`
	Clarity    string `json:"clarity,omitempty" yaml:"clarity,omitempty"`
	Evidence   string `json:"evidence" yaml:"evidence"`
	Instructor string `json:"instructor,omitempty" yaml:"instructor,omitempty"`
}

// Fields returns the mapping as logical name -> label, skipping unbound
// fields.
func (m ColumnMapping) Fields() map[string]string {
	out := make(map[string]string, 6)
	for _, kv := range [][2]string{
		{"group", m.Group},
		{"status", m.Status},
		{"rating", m.Rating},
		{"clarity", m.Clarity},
		{"evidence", m.Evidence},
		{"instructor", m.Instructor},
	} {
		if strings.TrimSpace(kv[1]) != "" {
			out[kv[0]] = kv[1]
		}
	}
	return out
}

// RuntimeConfig controls how the aggregation pass is executed.
type RuntimeConfig struct {
	// Shards > 1 splits rows by group hash and aggregates shards in parallel.
	Shards int `json:"shards" yaml:"shards" validate:"gte=0,lte=256"`
}

// Source identifies where the export is read from.
type Source struct {
	// Kind selects the source: "file", "http", "sqlite" or "postgres".
	Kind string `json:"kind" yaml:"kind" validate:"required"`

	File SourceFile `json:"file" yaml:"file"`
	HTTP SourceHTTP `json:"http" yaml:"http"`
	DB   SourceDB   `json:"db" yaml:"db"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	Path string `json:"path" yaml:"path"`
}

// SourceHTTP holds configuration for the "http" source kind, typically a
// spreadsheet "export as CSV" link.
type SourceHTTP struct {
	URL        string `json:"url" yaml:"url"`
	MaxRetries int    `json:"max_retries" yaml:"max_retries" validate:"gte=0,lte=10"`
	// TimeoutSeconds is the per-request timeout; zero uses the client default.
	TimeoutSeconds int `json:"timeout_seconds" yaml:"timeout_seconds" validate:"gte=0"`
}

// SourceDB holds configuration for the "sqlite" and "postgres" source kinds.
type SourceDB struct {
	DSN   string `json:"dsn" yaml:"dsn"`
	Table string `json:"table" yaml:"table"`
	// Columns restricts the SELECT list; empty selects every column.
	Columns []string `json:"columns" yaml:"columns"`
}

// Parser selects how a byte source is turned into a table. It is ignored for
// database sources.
type Parser struct {
	// Kind selects the parser: "csv", "xlsx" or "json".
	Kind string `json:"kind" yaml:"kind"`

	// Options is interpreted by the parser. CSV keys: comma (string),
	// lazy_quotes (bool), header_names ([]string). XLSX keys: sheet (string),
	// header_row (int), header_names ([]string). JSON keys: allow_arrays
	// (bool), columns ([]string).
	Options Options `json:"options" yaml:"options"`
}

// MetricsConfig selects a metrics backend.
type MetricsConfig struct {
	// Backend is "none", "pushgateway" or "datadog".
	Backend        string `json:"backend" yaml:"backend" validate:"omitempty,oneof=none pushgateway datadog"`
	PushgatewayURL string `json:"pushgateway_url" yaml:"pushgateway_url"`
	DatadogAddr    string `json:"datadog_addr" yaml:"datadog_addr"`
}

// ServerConfig configures the read-only HTTP API.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// Load reads a config file. Files ending in .yaml or .yml are decoded as YAML,
// everything else as JSON. Defaults are applied to the result.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var c Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &c); err != nil {
			return Config{}, fmt.Errorf("config: decode yaml %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &c); err != nil {
			return Config{}, fmt.Errorf("config: decode json %s: %w", path, err)
		}
	}
	c.ApplyDefaults()
	return c, nil
}

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Job == "" {
		c.Job = "feedback_report"
	}
	if len(c.PoorRatings) == 0 {
		c.PoorRatings = append([]float64(nil), DefaultPoorRatings...)
	}
	if c.Parser.Kind == "" {
		switch c.Source.Kind {
		case "file":
			c.Parser.Kind = parserKindFromPath(c.Source.File.Path)
		case "http":
			c.Parser.Kind = parserKindFromPath(c.Source.HTTP.URL)
		}
	}
	if c.Parser.Options == nil {
		c.Parser.Options = Options{}
	}
	if c.Metrics.Backend == "" {
		c.Metrics.Backend = "none"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

func parserKindFromPath(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".xlsx":
		return "xlsx"
	case ".json", ".ndjson", ".jsonl":
		return "json"
	}
	return "csv"
}

// Options is a small helper to fetch typed values from free-form option maps
// decoded from JSON or YAML. It performs only minimal type coercion and
// returns the provided default when a key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64 and
// YAML integers as int; both are accepted.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringSlice returns a []string for key when the value is an array of
// strings. Returns nil when the key is missing or the value is not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// UnmarshalJSON makes a missing or null "options" object decode to a non-nil,
// empty Options map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
