package config

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"github.com/bigbuild/buildwizard/internal/domain"
)

// TokenSet holds the tokens read from the token file.
type TokenSet struct {
	fallback string
	byOrg    map[string]string
}

// ParseTokenFile parses `organization=token` lines or a single bare token line.
// Blank lines and lines starting with # are ignored.
func ParseTokenFile(data []byte) (*TokenSet, error) {
	ts := &TokenSet{byOrg: map[string]string{}}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		org, token, ok := strings.Cut(line, "=")
		if !ok {
			if ts.fallback != "" {
				return nil, fmt.Errorf("token file contains more than one bare token")
			}
			ts.fallback = line
			continue
		}
		org, token = strings.TrimSpace(org), strings.TrimSpace(token)
		if org == "" || token == "" {
			return nil, fmt.Errorf("malformed token line for %q", org)
		}
		ts.byOrg[strings.ToLower(org)] = token
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	if ts.fallback == "" && len(ts.byOrg) == 0 {
		return nil, fmt.Errorf("%w: token file is empty", domain.ErrConfigurationMissing)
	}
	return ts, nil
}

// For returns the token for org, falling back to the bare token.
func (ts *TokenSet) For(org string) (string, error) {
	if token, ok := ts.byOrg[strings.ToLower(org)]; ok {
		return token, nil
	}
	if ts.fallback != "" {
		return ts.fallback, nil
	}
	return "", fmt.Errorf("%w: no token for organization %s", domain.ErrConfigurationMissing, org)
}

// TokenResolver resolves the API token for an organization. An explicit token (flag or
// GITHUB_TOKEN) wins over the token file.
type TokenResolver struct {
	fs       afero.Fs
	path     string
	explicit string
	set      *TokenSet
}

// NewTokenResolver creates a TokenResolver reading path from fs.
func NewTokenResolver(fs afero.Fs, path, explicit string) *TokenResolver {
	return &TokenResolver{fs: fs, path: path, explicit: strings.TrimSpace(explicit)}
}

// Token returns the token for org. A missing token file is fatal.
func (r *TokenResolver) Token(org string) (string, error) {
	if r.explicit != "" {
		return r.explicit, nil
	}
	if r.set == nil {
		exists, err := afero.Exists(r.fs, r.path)
		if err != nil {
			return "", fmt.Errorf("failed to check token file: %w", err)
		}
		if !exists {
			return "", fmt.Errorf("%w: token file %s not found", domain.ErrConfigurationMissing, r.path)
		}
		data, err := afero.ReadFile(r.fs, r.path)
		if err != nil {
			return "", fmt.Errorf("failed to read token file: %w", err)
		}
		set, err := ParseTokenFile(data)
		if err != nil {
			return "", err
		}
		r.set = set
	}
	token, err := r.set.For(org)
	if err != nil {
		return "", err
	}
	if err := ValidateGitHubToken(token); err != nil {
		return "", fmt.Errorf("invalid token for %s: %w", org, err)
	}
	return token, nil
}
