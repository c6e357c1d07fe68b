// Package datasource defines where survey exports come from. Byte sources
// (file, http) hand a stream to a parser; table sources (sqlite, postgres)
// produce rows directly.
package datasource

import (
	"context"
	"io"

	"github.com/EslamHany2002/Feedback-Report/pkg/records"
)

// Source opens a byte stream holding one export.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// TableSource loads an export that is already tabular.
type TableSource interface {
	Load(ctx context.Context) (records.Table, error)
}
