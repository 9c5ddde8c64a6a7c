package domain

import (
	"fmt"
	"strings"
)

// PackageBranchType is the repository channel a package build is published to.
type PackageBranchType string

const (
	PackageBranchTesting PackageBranchType = "testing"
	PackageBranchStable  PackageBranchType = "stable"
	PackageBranchExtra   PackageBranchType = "extra"
)

// PackageBranchTypes lists the channels in menu order.
var PackageBranchTypes = []PackageBranchType{PackageBranchTesting, PackageBranchStable, PackageBranchExtra}

const (
	EventTypePackageBuild = "package-build"
	EventTypeAURBuild     = "aur-build"
	aurBaseURL            = "https://aur.archlinux.org/"
)

var aurPrefixes = []string{"aur-", "aur/", "aur:"}

// PackageBuild is a package-build request. AUR selects the externally hosted payload shape;
// the caller decides, nothing is inferred.
type PackageBuild struct {
	AUR           bool
	PackageName   string
	SourceURL     string
	BranchName    string
	BranchType    PackageBranchType
	RepositoryURL string
	DebugSession  bool
}

// NewAURPackageBuild creates an AUR request from a package name or AUR clone URL.
func NewAURPackageBuild(nameOrURL string, branchType PackageBranchType) PackageBuild {
	name := NormalizePackageName(nameOrURL)
	return PackageBuild{
		AUR:         true,
		PackageName: name,
		SourceURL:   aurBaseURL + name + ".git",
		BranchType:  branchType,
	}
}

// NormalizePackageName strips known AUR prefixes, URL parts and a trailing .git.
func NormalizePackageName(s string) string {
	name := strings.TrimSpace(s)
	if strings.Contains(name, "://") {
		name = strings.TrimSuffix(name, "/")
		if idx := strings.LastIndex(name, "/"); idx >= 0 {
			name = name[idx+1:]
		}
	}
	name = strings.TrimSuffix(name, ".git")
	for _, prefix := range aurPrefixes {
		if strings.HasPrefix(strings.ToLower(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}
	return name
}

// EventType returns the repository_dispatch event type for the request.
func (b PackageBuild) EventType() string {
	if b.AUR {
		return EventTypeAURBuild
	}
	return EventTypePackageBuild
}

// Validate checks the fields required by the selected payload shape.
func (b PackageBuild) Validate() error {
	var missing []string
	if b.BranchType == "" {
		missing = append(missing, "branch type")
	}
	if b.AUR {
		if b.PackageName == "" {
			missing = append(missing, "package name")
		}
		if b.SourceURL == "" {
			missing = append(missing, "source url")
		}
	} else {
		if b.BranchName == "" {
			missing = append(missing, "branch name")
		}
		if b.RepositoryURL == "" {
			missing = append(missing, "repository url")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrConfigurationMissing, strings.Join(missing, ", "))
	}
	return nil
}

// ClientPayload renders the payload for the selected shape.
func (b PackageBuild) ClientPayload() map[string]any {
	if b.AUR {
		return map[string]any{
			"package_name":  b.PackageName,
			"aur_url":       b.SourceURL,
			"branch_type":   string(b.BranchType),
			"debug_session": b.DebugSession,
		}
	}
	return map[string]any{
		"branch":        b.BranchName,
		"branch_type":   string(b.BranchType),
		"url":           b.RepositoryURL,
		"debug_session": b.DebugSession,
	}
}
