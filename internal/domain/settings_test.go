package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings_ApplyMode(t *testing.T) {
	t.Run("Should enable every automation flag in quick mode", func(t *testing.T) {
		s := DefaultSettings()
		s.ApplyMode(ModeQuick)
		assert.Equal(t, ModeQuick, s.Mode)
		assert.True(t, s.AutoPull && s.AutoCommit && s.AutoPush)
		assert.True(t, s.AutoCreateBranch && s.AutoPruneBranches && s.SkipConfirmation)
	})
	t.Run("Should disable every automation flag in expert mode", func(t *testing.T) {
		s := DefaultSettings()
		s.ApplyMode(ModeExpert)
		assert.False(t, s.AutoPull || s.AutoCommit || s.AutoPush)
		assert.False(t, s.AutoCreateBranch || s.AutoPruneBranches || s.SkipConfirmation)
	})
}

func TestSettingsDefaults(t *testing.T) {
	t.Run("Should mirror DefaultSettings", func(t *testing.T) {
		d := DefaultSettings()
		m := SettingsDefaults()
		assert.Equal(t, string(d.Mode), m["mode"])
		assert.Equal(t, d.OutputDir, m["output_dir"])
		assert.Equal(t, d.AutoPull, m["auto_pull"])
		assert.Len(t, m, 14)
	})
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Quick ")
	require.NoError(t, err)
	assert.Equal(t, ModeQuick, m)
	_, err = ParseMode("turbo")
	assert.Error(t, err)
}

func TestSettings_Set(t *testing.T) {
	t.Run("Should parse boolean flags", func(t *testing.T) {
		s := DefaultSettings()
		require.NoError(t, s.Set("auto_prune_branches", "true"))
		assert.True(t, s.AutoPruneBranches)
		assert.Error(t, s.Set("auto_push", "maybe"))
	})
	t.Run("Should apply presets when the mode changes", func(t *testing.T) {
		s := DefaultSettings()
		require.NoError(t, s.Set("mode", "expert"))
		assert.Equal(t, ModeExpert, s.Mode)
		assert.False(t, s.AutoPull)
	})
	t.Run("Should validate enumerated values", func(t *testing.T) {
		s := DefaultSettings()
		assert.Error(t, s.Set("kernel", "rt"))
		assert.Error(t, s.Set("distro", "debian"))
		assert.Error(t, s.Set("manjaro_branch", "nightly"))
		assert.ErrorContains(t, s.Set("colour", "blue"), "unknown setting")
		require.NoError(t, s.Set("community_branch", "Testing"))
		assert.Equal(t, "testing", s.CommunityBranch)
	})
}

func TestSettings_Sanitize(t *testing.T) {
	s := DefaultSettings()
	s.Kernel = "rt"
	s.Mode = "turbo"
	reset := s.Sanitize()
	assert.ElementsMatch(t, []string{"kernel", "mode"}, reset)
	assert.Equal(t, DefaultSettings(), s)
}
