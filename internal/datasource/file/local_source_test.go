package file

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLocalOpen covers success, missing file, directory and pre-canceled
// context.
func TestLocalOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	export := filepath.Join(dir, "feedback.csv")
	require.NoError(t, os.WriteFile(export, []byte("group,status\n"), 0o644))

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	cases := []struct {
		name        string
		path        string
		ctx         context.Context
		wantErrIs   error
		wantErr     string
		wantContent string
	}{
		{name: "reads_content", path: export, ctx: context.Background(), wantContent: "group,status\n"},
		{name: "missing_file", path: filepath.Join(dir, "missing.csv"), ctx: context.Background(), wantErrIs: os.ErrNotExist, wantErr: "open export"},
		{name: "directory", path: dir, ctx: context.Background(), wantErr: "is a directory"},
		{name: "pre_canceled", path: export, ctx: canceled, wantErrIs: context.Canceled},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			src := NewLocal(c.path)
			assert.Equal(t, c.path, src.Path())
			rc, err := src.Open(c.ctx)

			if c.wantErrIs != nil || c.wantErr != "" {
				require.Error(t, err)
				assert.Nil(t, rc)
				if c.wantErrIs != nil {
					assert.ErrorIs(t, err, c.wantErrIs)
				}
				if c.wantErr != "" {
					assert.Contains(t, err.Error(), c.wantErr)
				}
				return
			}

			require.NoError(t, err)
			defer rc.Close()
			got, err := io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, c.wantContent, string(got))
		})
	}
}
