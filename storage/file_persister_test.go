package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFilePersister(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		path         string
		existingData string
		data         string
	}{
		{
			name: "just_file",
			path: "test.bin",
			data: "some data",
		},
		{
			name: "with_dir",
			path: "nested/dir/test.bin",
			data: "some data",
		},
		{
			name:         "truncates",
			path:         "test.bin",
			data:         "short",
			existingData: "much longer existing data",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := filepath.Join(t.TempDir(), tt.path)
			if tt.existingData != "" {
				require.NoError(t, os.WriteFile(p, []byte(tt.existingData), 0o600))
			}

			var l LocalFilePersister
			require.NoError(t, l.Persist(context.Background(), p, strings.NewReader(tt.data)))

			got, err := os.ReadFile(filepath.Clean(p))
			require.NoError(t, err)
			assert.Equal(t, tt.data, string(got))
		})
	}
}
