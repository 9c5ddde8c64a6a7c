package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/spf13/viper"
)

const appName = "buildwizard"

type Config struct {
	GithubToken         string        `mapstructure:"github_token"`
	TokenFile           string        `mapstructure:"token_file"`
	GithubAPIURL        string        `mapstructure:"github_api_url"`
	GithubOwner         string        `mapstructure:"github_owner"`
	GithubRepo          string        `mapstructure:"github_repo"`
	ISOWorkflowRepo     string        `mapstructure:"iso_workflow_repo"`
	PackageWorkflowRepo string        `mapstructure:"package_workflow_repo"`
	ProfilesRef         string        `mapstructure:"profiles_ref"`
	DispatchDelay       time.Duration `mapstructure:"dispatch_delay"`
	DispatchTimeout     time.Duration `mapstructure:"dispatch_timeout"`
	SettingsFile        string        `mapstructure:"settings_file"`
	StateDir            string        `mapstructure:"state_dir"`
	HistoryLimit        int           `mapstructure:"history_limit"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	configDir := filepath.Join(userDir(".config"), appName)
	return &Config{
		TokenFile:           filepath.Join(configDir, "github_token"),
		ISOWorkflowRepo:     "build-iso",
		PackageWorkflowRepo: "build-package",
		ProfilesRef:         "main",
		DispatchDelay:       5 * time.Second,
		DispatchTimeout:     30 * time.Second,
		SettingsFile:        filepath.Join(configDir, "settings.json"),
		StateDir:            filepath.Join(userDir(filepath.Join(".local", "state")), appName),
		HistoryLimit:        200,
	}
}

func userDir(rel string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return rel
	}
	return filepath.Join(home, rel)
}

// LogDir returns the directory holding per-repository log files.
func (c *Config) LogDir() string {
	return filepath.Join(c.StateDir, "logs")
}

// HistoryFile returns the dispatch history path.
func (c *Config) HistoryFile() string {
	return filepath.Join(c.StateDir, "history.json")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.GithubOwner != "" || c.GithubRepo != "" {
		if err := ValidateGitHubOwnerRepo(c.GithubOwner, c.GithubRepo); err != nil {
			return fmt.Errorf("invalid github configuration: %w", err)
		}
	}
	for key, name := range map[string]string{
		"iso_workflow_repo":     c.ISOWorkflowRepo,
		"package_workflow_repo": c.PackageWorkflowRepo,
	} {
		if err := ValidateGitHubOwnerRepo("owner", name); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	if c.DispatchTimeout <= 0 {
		return fmt.Errorf("dispatch_timeout must be positive")
	}
	if c.DispatchDelay < 0 {
		return fmt.Errorf("dispatch_delay cannot be negative")
	}
	if c.StateDir == "" {
		return fmt.Errorf("state_dir cannot be empty")
	}
	if strings.Contains(c.StateDir, "..") {
		return fmt.Errorf("state_dir contains invalid path traversal")
	}
	if c.GithubToken != "" {
		if err := ValidateGitHubToken(c.GithubToken); err != nil {
			return fmt.Errorf("invalid github_token: %w", err)
		}
	}
	return nil
}

// ValidateGitHubToken rejects tokens that cannot be sent in an Authorization header.
func ValidateGitHubToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}
	if strings.ContainsAny(token, " \t\r\n") {
		return fmt.Errorf("token contains whitespace")
	}
	if len(token) > 255 {
		return fmt.Errorf("token too long: maximum 255 characters")
	}
	return nil
}

var validName = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-_.]*[a-zA-Z0-9]$|^[a-zA-Z0-9]$`)

// ValidateGitHubOwnerRepo validates GitHub owner and repository names (exported for reuse)
func ValidateGitHubOwnerRepo(owner, repo string) error {
	if owner == "" {
		return fmt.Errorf("owner cannot be empty")
	}
	if repo == "" {
		return fmt.Errorf("repository cannot be empty")
	}
	if !validName.MatchString(owner) {
		return fmt.Errorf("invalid owner format: %s", owner)
	}
	if len(owner) > 39 {
		return fmt.Errorf("owner too long: maximum 39 characters")
	}
	if !validName.MatchString(repo) {
		return fmt.Errorf("invalid repository format: %s", repo)
	}
	if len(repo) > 100 {
		return fmt.Errorf("repository too long: maximum 100 characters")
	}
	return nil
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("." + appName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix("BUILDWIZARD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// BindEnv checks the listed variables in order
	if err := v.BindEnv("github_token", "GITHUB_TOKEN", "BUILDWIZARD_GITHUB_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind github_token env: %w", err)
	}
	if err := v.BindEnv("github_api_url", "GITHUB_API_URL", "BUILDWIZARD_GITHUB_API_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind github_api_url env: %w", err)
	}
	defaults := DefaultConfig()
	v.SetDefault("token_file", defaults.TokenFile)
	v.SetDefault("iso_workflow_repo", defaults.ISOWorkflowRepo)
	v.SetDefault("package_workflow_repo", defaults.PackageWorkflowRepo)
	v.SetDefault("profiles_ref", defaults.ProfilesRef)
	v.SetDefault("dispatch_delay", defaults.DispatchDelay)
	v.SetDefault("dispatch_timeout", defaults.DispatchTimeout)
	v.SetDefault("settings_file", defaults.SettingsFile)
	v.SetDefault("state_dir", defaults.StateDir)
	v.SetDefault("history_limit", defaults.HistoryLimit)
	v.SetDefault("github_owner", "")
	v.SetDefault("github_repo", "")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := populateRepositoryDefaults(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}

// populateRepositoryDefaults fills owner/repo from the Actions environment or the origin remote.
func populateRepositoryDefaults(cfg *Config) error {
	if cfg.GithubOwner != "" && cfg.GithubRepo != "" {
		return nil
	}
	if owner := os.Getenv("GITHUB_REPOSITORY_OWNER"); owner != "" && cfg.GithubOwner == "" {
		cfg.GithubOwner = owner
	}
	if name := os.Getenv("GITHUB_REPOSITORY_NAME"); name != "" && cfg.GithubRepo == "" {
		cfg.GithubRepo = name
	}
	if slug := os.Getenv("GITHUB_REPOSITORY"); slug != "" {
		if owner, repo, ok := strings.Cut(slug, "/"); ok {
			if cfg.GithubOwner == "" {
				cfg.GithubOwner = owner
			}
			if cfg.GithubRepo == "" {
				cfg.GithubRepo = repo
			}
		}
	}
	if cfg.GithubOwner != "" && cfg.GithubRepo != "" {
		return nil
	}
	repo, err := git.PlainOpenWithOptions(".", &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		// Not inside a repository; commands that need owner/repo validate later
		return nil
	}
	remote, err := repo.Remote("origin")
	if err != nil || len(remote.Config().URLs) == 0 {
		return nil
	}
	owner, name, err := ParseGitRemoteURL(remote.Config().URLs[0])
	if err != nil {
		// Origin is not a GitHub style remote; same as outside a repository
		return nil
	}
	if cfg.GithubOwner == "" {
		cfg.GithubOwner = owner
	}
	if cfg.GithubRepo == "" {
		cfg.GithubRepo = name
	}
	return nil
}

// ParseGitRemoteURL extracts owner and repository from https, scp-style ssh or path remotes.
func ParseGitRemoteURL(raw string) (string, string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", "", fmt.Errorf("remote url is empty")
	}
	s = strings.TrimSuffix(strings.TrimSuffix(s, "/"), ".git")
	switch {
	case strings.Contains(s, "://"):
		_, rest, _ := strings.Cut(s, "://")
		if _, path, ok := strings.Cut(rest, "/"); ok {
			s = path
		}
	case strings.Contains(s, "@") && strings.Contains(s, ":"):
		_, s, _ = strings.Cut(s, ":")
	}
	s = filepath.ToSlash(s)
	parts := strings.Split(strings.Trim(s, "/"), "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("cannot determine owner/repo from %q", raw)
	}
	owner, repo := parts[len(parts)-2], parts[len(parts)-1]
	if owner == "" || repo == "" {
		return "", "", fmt.Errorf("cannot determine owner/repo from %q", raw)
	}
	return owner, repo, nil
}

// RepositoryURL returns the browser URL of owner/repo.
func RepositoryURL(owner, repo string) string {
	return fmt.Sprintf("https://github.com/%s/%s", owner, repo)
}
