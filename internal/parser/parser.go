package parser

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/EslamHany2002/Feedback-Report/internal/config"
	"github.com/EslamHany2002/Feedback-Report/internal/parser/csv"
	"github.com/EslamHany2002/Feedback-Report/internal/parser/json"
	"github.com/EslamHany2002/Feedback-Report/internal/parser/xlsx"
	"github.com/EslamHany2002/Feedback-Report/pkg/records"
)

// Parser loads a complete export from r. The int result is the number of
// rows dropped as unreadable.
type Parser interface {
	Parse(r io.Reader) (records.Table, int, error)
}

// New returns the parser for cfg.Kind. log receives row-level notices from
// parsers that emit them; nil uses the logrus standard logger.
func New(cfg config.Parser, log logrus.FieldLogger) (Parser, error) {
	switch cfg.Kind {
	case "csv":
		opt := csv.OptionsFrom(cfg.Options)
		opt.Logger = log
		return csv.NewParser(opt), nil
	case "xlsx":
		opt := xlsx.OptionsFrom(cfg.Options)
		opt.Logger = log
		return xlsx.NewParser(opt), nil
	case "json":
		return json.NewParser(json.OptionsFrom(cfg.Options)), nil
	default:
		return nil, fmt.Errorf("unsupported parser kind: %q", cfg.Kind)
	}
}
