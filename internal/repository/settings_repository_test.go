package repository

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bigbuild/buildwizard/internal/domain"
)

const settingsPath = "/home/user/.config/buildwizard/settings.json"

func TestJSONSettingsRepository_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("Should return the defaults exactly when the file is missing", func(t *testing.T) {
		repo := NewJSONSettingsRepository(afero.NewMemMapFs(), settingsPath, zap.NewNop())
		settings, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultSettings(), settings)
		assert.Equal(t, domain.SettingsDefaults(), settings.Map())
	})

	t.Run("Should merge a subset of keys over the defaults", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, settingsPath,
			[]byte(`{"kernel":"xanmod","output_dir":"/srv/iso","auto_push":false}`), 0o644))
		settings, err := NewJSONSettingsRepository(fs, settingsPath, zap.NewNop()).Load(ctx)
		require.NoError(t, err)

		want := domain.DefaultSettings()
		want.Kernel = "xanmod"
		want.OutputDir = "/srv/iso"
		want.AutoPush = false
		assert.Equal(t, want, settings)
	})

	t.Run("Should replace a corrupt file with the defaults", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, settingsPath, []byte(`{"kernel":`), 0o644))
		repo := NewJSONSettingsRepository(fs, settingsPath, zap.NewNop())
		settings, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultSettings(), settings)

		data, err := afero.ReadFile(fs, settingsPath)
		require.NoError(t, err)
		var onDisk map[string]any
		require.NoError(t, json.Unmarshal(data, &onDisk))
		assert.Equal(t, "lts", onDisk["kernel"])
	})

	t.Run("Should reset invalid enumerated values", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, settingsPath, []byte(`{"kernel":"rt","edition":"kde"}`), 0o644))
		settings, err := NewJSONSettingsRepository(fs, settingsPath, zap.NewNop()).Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "lts", settings.Kernel)
		assert.Equal(t, "kde", settings.Edition)
	})
}

func TestJSONSettingsRepository_Set(t *testing.T) {
	ctx := context.Background()

	t.Run("Should persist every mutation", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		repo := NewJSONSettingsRepository(fs, settingsPath, zap.NewNop())
		_, err := repo.Set(ctx, "mode", "quick")
		require.NoError(t, err)
		_, err = repo.Set(ctx, "kernel", "latest")
		require.NoError(t, err)

		reloaded, err := NewJSONSettingsRepository(fs, settingsPath, zap.NewNop()).Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.ModeQuick, reloaded.Mode)
		assert.True(t, reloaded.SkipConfirmation)
		assert.Equal(t, "latest", reloaded.Kernel)
	})

	t.Run("Should not write an invalid value", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		repo := NewJSONSettingsRepository(fs, settingsPath, zap.NewNop())
		_, err := repo.Set(ctx, "kernel", "rt")
		assert.Error(t, err)
		exists, err := afero.Exists(fs, settingsPath)
		require.NoError(t, err)
		assert.False(t, exists)
	})
}
