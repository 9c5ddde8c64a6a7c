package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigbuild/buildwizard/internal/domain"
)

func newHistoryRecord(eventType string) domain.DispatchRecord {
	return domain.DispatchRecord{
		ID:         eventType,
		Kind:       domain.DispatchKindISO,
		Owner:      "biglinux",
		Repo:       "build-iso",
		EventType:  eventType,
		Payload:    map[string]any{"edition": "kde"},
		DispatchAt: time.Date(2024, 5, 1, 13, 7, 0, 0, time.UTC),
	}
}

func TestJSONHistoryRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Should return an empty history when the file is missing", func(t *testing.T) {
		repo := NewJSONHistoryRepository(afero.NewOsFs(), filepath.Join(t.TempDir(), "history.json"), 10)
		history, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, history.Records)
	})

	t.Run("Should append records and trim to the limit", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state", "history.json")
		repo := NewJSONHistoryRepository(afero.NewOsFs(), path, 2)
		for _, et := range []string{"ISO-a", "ISO-b", "ISO-c"} {
			require.NoError(t, repo.Append(ctx, newHistoryRecord(et)))
		}
		history, err := repo.Load(ctx)
		require.NoError(t, err)
		require.Len(t, history.Records, 2)
		assert.Equal(t, "ISO-b", history.Records[0].EventType)
		assert.Equal(t, "ISO-c", history.Records[1].EventType)
		assert.Equal(t, "kde", history.Records[1].Payload["edition"])
	})

	t.Run("Should reject a tampered file", func(t *testing.T) {
		fs := afero.NewOsFs()
		path := filepath.Join(t.TempDir(), "history.json")
		repo := NewJSONHistoryRepository(fs, path, 10)
		require.NoError(t, repo.Append(ctx, newHistoryRecord("ISO-a")))

		data, err := afero.ReadFile(fs, path)
		require.NoError(t, err)
		tampered := strings.Replace(string(data), `"event_type": "ISO-a"`, `"event_type": "ISO-z"`, 1)
		require.NotEqual(t, string(data), tampered)
		require.NoError(t, afero.WriteFile(fs, path, []byte(tampered), HistoryFilePermissions))

		_, err = repo.Load(ctx)
		assert.ErrorContains(t, err, "checksum mismatch")
	})

	t.Run("Should reject an unknown schema version", func(t *testing.T) {
		fs := afero.NewOsFs()
		path := filepath.Join(t.TempDir(), "history.json")
		require.NoError(t, afero.WriteFile(fs, path,
			[]byte(`{"metadata":{"schema_version":"0.1.0"},"history":{"records":[]}}`), HistoryFilePermissions))
		_, err := NewJSONHistoryRepository(fs, path, 10).Load(ctx)
		assert.ErrorContains(t, err, "incompatible schema version")
	})

	t.Run("Should keep every concurrent append", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "history.json")
		repo := NewJSONHistoryRepository(afero.NewOsFs(), path, 100)
		var wg sync.WaitGroup
		errs := make(chan error, 8)
		for i := range 8 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs <- repo.Append(ctx, newHistoryRecord(fmt.Sprintf("ISO-%d", i)))
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}
		history, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Len(t, history.Records, 8)
		assert.Equal(t, 8, history.DistinctEventTypes("biglinux", "build-iso"))
	})
}
