package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Mode controls how much of the workflow runs without prompting.
type Mode string

const (
	ModeQuick  Mode = "quick"
	ModeSafe   Mode = "safe"
	ModeExpert Mode = "expert"
)

// ConflictStrategy decides what happens when a pull cannot fast-forward.
type ConflictStrategy string

const (
	ConflictAsk    ConflictStrategy = "ask"
	ConflictOurs   ConflictStrategy = "ours"
	ConflictTheirs ConflictStrategy = "theirs"
)

// Settings is the persisted per-user configuration.
type Settings struct {
	Mode              Mode             `mapstructure:"mode" json:"mode"`
	ConflictStrategy  ConflictStrategy `mapstructure:"conflict_strategy" json:"conflict_strategy"`
	AutoPull          bool             `mapstructure:"auto_pull" json:"auto_pull"`
	AutoCommit        bool             `mapstructure:"auto_commit" json:"auto_commit"`
	AutoPush          bool             `mapstructure:"auto_push" json:"auto_push"`
	AutoCreateBranch  bool             `mapstructure:"auto_create_branch" json:"auto_create_branch"`
	AutoPruneBranches bool             `mapstructure:"auto_prune_branches" json:"auto_prune_branches"`
	SkipConfirmation  bool             `mapstructure:"skip_confirmation" json:"skip_confirmation"`
	OutputDir         string           `mapstructure:"output_dir" json:"output_dir"`
	Distro            string           `mapstructure:"distro" json:"distro"`
	Edition           string           `mapstructure:"edition" json:"edition"`
	ManjaroBranch     string           `mapstructure:"manjaro_branch" json:"manjaro_branch"`
	CommunityBranch   string           `mapstructure:"community_branch" json:"community_branch"`
	Kernel            string           `mapstructure:"kernel" json:"kernel"`
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	s := Settings{
		ConflictStrategy: ConflictAsk,
		OutputDir:        "~/ISO",
		Distro:           "bigcommunity",
		Edition:          "xfce",
		ManjaroBranch:    string(BranchStable),
		CommunityBranch:  string(BranchStable),
		Kernel:           "lts",
	}
	s.ApplyMode(ModeSafe)
	return s
}

// SettingsDefaults returns the defaults keyed by their persisted names.
func SettingsDefaults() map[string]any {
	return DefaultSettings().Map()
}

// ParseMode converts user input into a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case ModeQuick, ModeSafe, ModeExpert:
		return m, nil
	}
	return "", fmt.Errorf("invalid mode %q (expected quick, safe or expert)", s)
}

// ApplyMode sets the mode and its preset automation flags.
func (s *Settings) ApplyMode(m Mode) {
	s.Mode = m
	switch m {
	case ModeQuick:
		s.AutoPull, s.AutoCommit, s.AutoPush = true, true, true
		s.AutoCreateBranch, s.AutoPruneBranches, s.SkipConfirmation = true, true, true
	case ModeSafe:
		s.AutoPull, s.AutoCommit, s.AutoPush = true, true, true
		s.AutoCreateBranch, s.AutoPruneBranches, s.SkipConfirmation = false, false, false
	case ModeExpert:
		s.AutoPull, s.AutoCommit, s.AutoPush = false, false, false
		s.AutoCreateBranch, s.AutoPruneBranches, s.SkipConfirmation = false, false, false
	}
}

// ParseConflictStrategy converts user input into a ConflictStrategy.
func ParseConflictStrategy(s string) (ConflictStrategy, error) {
	c := ConflictStrategy(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case ConflictAsk, ConflictOurs, ConflictTheirs:
		return c, nil
	}
	return "", fmt.Errorf("invalid conflict strategy %q (expected ask, ours or theirs)", s)
}

// Set assigns one setting by its persisted key. Setting the mode also applies its presets.
func (s *Settings) Set(key, value string) error {
	value = strings.TrimSpace(value)
	if flag := s.flag(key); flag != nil {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value %q for %s: expected true or false", value, key)
		}
		*flag = b
		return nil
	}
	switch key {
	case "mode":
		m, err := ParseMode(value)
		if err != nil {
			return err
		}
		s.ApplyMode(m)
	case "conflict_strategy":
		c, err := ParseConflictStrategy(value)
		if err != nil {
			return err
		}
		s.ConflictStrategy = c
	case "output_dir":
		if value == "" {
			return fmt.Errorf("output_dir cannot be empty")
		}
		s.OutputDir = value
	case "distro":
		if _, ok := LookupDistribution(value); !ok {
			return fmt.Errorf("unknown distribution %q", value)
		}
		s.Distro = value
	case "edition":
		s.Edition = strings.ToLower(value)
	case "manjaro_branch", "community_branch":
		b, err := ParseBranch(value)
		if err != nil {
			return err
		}
		if key == "manjaro_branch" {
			s.ManjaroBranch = string(b)
		} else {
			s.CommunityBranch = string(b)
		}
	case "kernel":
		if !slices.Contains(Kernels, value) {
			return fmt.Errorf("unknown kernel %q (expected one of %s)", value, strings.Join(Kernels, ", "))
		}
		s.Kernel = value
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

func (s *Settings) flag(key string) *bool {
	switch key {
	case "auto_pull":
		return &s.AutoPull
	case "auto_commit":
		return &s.AutoCommit
	case "auto_push":
		return &s.AutoPush
	case "auto_create_branch":
		return &s.AutoCreateBranch
	case "auto_prune_branches":
		return &s.AutoPruneBranches
	case "skip_confirmation":
		return &s.SkipConfirmation
	}
	return nil
}

// Sanitize replaces invalid enumerated values with their defaults and reports the keys it reset.
func (s *Settings) Sanitize() []string {
	d := DefaultSettings()
	var reset []string
	if _, err := ParseMode(string(s.Mode)); err != nil {
		s.Mode = d.Mode
		reset = append(reset, "mode")
	}
	if _, err := ParseConflictStrategy(string(s.ConflictStrategy)); err != nil {
		s.ConflictStrategy = d.ConflictStrategy
		reset = append(reset, "conflict_strategy")
	}
	if _, ok := LookupDistribution(s.Distro); !ok {
		s.Distro = d.Distro
		reset = append(reset, "distro")
	}
	if _, err := ParseBranch(s.ManjaroBranch); err != nil {
		s.ManjaroBranch = d.ManjaroBranch
		reset = append(reset, "manjaro_branch")
	}
	if _, err := ParseBranch(s.CommunityBranch); err != nil {
		s.CommunityBranch = d.CommunityBranch
		reset = append(reset, "community_branch")
	}
	if !slices.Contains(Kernels, s.Kernel) {
		s.Kernel = d.Kernel
		reset = append(reset, "kernel")
	}
	return reset
}

// Map returns the settings keyed by their persisted names.
func (s Settings) Map() map[string]any {
	return map[string]any{
		"mode":                string(s.Mode),
		"conflict_strategy":   string(s.ConflictStrategy),
		"auto_pull":           s.AutoPull,
		"auto_commit":         s.AutoCommit,
		"auto_push":           s.AutoPush,
		"auto_create_branch":  s.AutoCreateBranch,
		"auto_prune_branches": s.AutoPruneBranches,
		"skip_confirmation":   s.SkipConfirmation,
		"output_dir":          s.OutputDir,
		"distro":              s.Distro,
		"edition":             s.Edition,
		"manjaro_branch":      s.ManjaroBranch,
		"community_branch":    s.CommunityBranch,
		"kernel":              s.Kernel,
	}
}
