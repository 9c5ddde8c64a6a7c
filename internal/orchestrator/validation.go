package orchestrator

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/bigbuild/buildwizard/internal/domain"
)

// branchNameRegex matches valid git branch names
var branchNameRegex = regexp.MustCompile(`^[a-zA-Z0-9._/-]+$`)

// ValidateBranchName validates a git branch name.
func ValidateBranchName(branch string) error {
	if branch == "" {
		return fmt.Errorf("branch name cannot be empty")
	}
	if len(branch) > 255 {
		return fmt.Errorf("branch name too long: %d characters (max: 255)", len(branch))
	}
	// Check for invalid patterns
	if strings.HasPrefix(branch, "/") || strings.HasSuffix(branch, "/") {
		return fmt.Errorf("branch name cannot start or end with slash: %s", branch)
	}
	if strings.Contains(branch, "..") {
		return fmt.Errorf("branch name cannot contain consecutive dots: %s", branch)
	}
	if strings.HasSuffix(branch, ".lock") {
		return fmt.Errorf("branch name cannot end with .lock: %s", branch)
	}
	if !branchNameRegex.MatchString(branch) {
		return fmt.Errorf("invalid branch name format: %s", branch)
	}
	return nil
}

// ValidateOverrides checks the values given on the command line before any step runs.
func ValidateOverrides(o ISOOverrides) error {
	if o.Organization != "" && !slices.Contains(domain.Organizations(), o.Organization) {
		return fmt.Errorf("unknown organization %q (expected one of: %s)",
			o.Organization, strings.Join(domain.Organizations(), ", "))
	}
	if o.Distribution != "" {
		if _, ok := domain.LookupDistribution(o.Distribution); !ok {
			return fmt.Errorf("unknown distribution %q (expected one of: %s)",
				o.Distribution, strings.Join(domain.Distributions(), ", "))
		}
	}
	if o.Kernel != "" && !slices.Contains(domain.Kernels, o.Kernel) {
		return fmt.Errorf("unknown kernel %q (expected one of: %s)",
			o.Kernel, strings.Join(domain.Kernels, ", "))
	}
	if strings.ContainsAny(o.Edition, " /") {
		return fmt.Errorf("invalid edition %q", o.Edition)
	}
	return nil
}
