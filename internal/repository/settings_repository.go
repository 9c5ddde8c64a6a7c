package repository

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/bigbuild/buildwizard/internal/domain"
)

const settingsDirPermissions = 0o755

// SettingsRepository persists the per-user Settings. Writes are last-writer-wins.
type SettingsRepository interface {
	Load(ctx context.Context) (domain.Settings, error)
	Save(ctx context.Context, settings domain.Settings) error
	// Set updates one key and persists the result immediately.
	Set(ctx context.Context, key, value string) (domain.Settings, error)
	Path() string
}

// JSONSettingsRepository stores Settings as a JSON object through viper.
type JSONSettingsRepository struct {
	fs     afero.Fs
	path   string
	logger *zap.Logger
}

// NewJSONSettingsRepository creates a settings repository for path on fs.
func NewJSONSettingsRepository(fs afero.Fs, path string, logger *zap.Logger) *JSONSettingsRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONSettingsRepository{fs: fs, path: path, logger: logger}
}

func (r *JSONSettingsRepository) Path() string {
	return r.path
}

func (r *JSONSettingsRepository) newViper() *viper.Viper {
	v := viper.New()
	v.SetFs(r.fs)
	v.SetConfigFile(r.path)
	v.SetConfigType("json")
	for key, value := range domain.SettingsDefaults() {
		v.SetDefault(key, value)
	}
	return v
}

// Load reads the settings file. A missing file yields the defaults; keys present in the
// file override the defaults; an unreadable file is replaced by the defaults.
func (r *JSONSettingsRepository) Load(ctx context.Context) (domain.Settings, error) {
	exists, err := afero.Exists(r.fs, r.path)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("failed to check settings file: %w", err)
	}
	if !exists {
		return domain.DefaultSettings(), nil
	}
	v := r.newViper()
	if err := v.ReadInConfig(); err != nil {
		r.logger.Warn("settings file is corrupt, restoring defaults",
			zap.String("path", r.path), zap.Error(err))
		defaults := domain.DefaultSettings()
		if err := r.Save(ctx, defaults); err != nil {
			return domain.Settings{}, err
		}
		return defaults, nil
	}
	var settings domain.Settings
	if err := v.Unmarshal(&settings); err != nil {
		r.logger.Warn("settings file has invalid values, restoring defaults",
			zap.String("path", r.path), zap.Error(err))
		defaults := domain.DefaultSettings()
		if err := r.Save(ctx, defaults); err != nil {
			return domain.Settings{}, err
		}
		return defaults, nil
	}
	if reset := settings.Sanitize(); len(reset) > 0 {
		r.logger.Warn("settings reset to defaults", zap.Strings("keys", reset))
	}
	return settings, nil
}

// Save writes every key of settings to the file.
func (r *JSONSettingsRepository) Save(_ context.Context, settings domain.Settings) error {
	if err := r.fs.MkdirAll(filepath.Dir(r.path), settingsDirPermissions); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	v := r.newViper()
	for key, value := range settings.Map() {
		v.Set(key, value)
	}
	if err := v.WriteConfigAs(r.path); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

// Set implements SettingsRepository.
func (r *JSONSettingsRepository) Set(ctx context.Context, key, value string) (domain.Settings, error) {
	settings, err := r.Load(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	if err := settings.Set(key, value); err != nil {
		return domain.Settings{}, err
	}
	if err := r.Save(ctx, settings); err != nil {
		return domain.Settings{}, err
	}
	r.logger.Info("setting updated", zap.String("key", key), zap.String("value", value))
	return settings, nil
}
