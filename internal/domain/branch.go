package domain

import (
	"fmt"
	"strings"
)

// Branch is a release channel a component can be built from.
type Branch string

const (
	BranchStable   Branch = "stable"
	BranchTesting  Branch = "testing"
	BranchUnstable Branch = "unstable"
)

// Branches lists the selectable channels in menu order.
var Branches = []Branch{BranchStable, BranchTesting, BranchUnstable}

// ParseBranch converts user input into a Branch.
func ParseBranch(s string) (Branch, error) {
	b := Branch(strings.ToLower(strings.TrimSpace(s)))
	switch b {
	case BranchStable, BranchTesting, BranchUnstable:
		return b, nil
	}
	return "", fmt.Errorf("invalid branch %q (expected stable, testing or unstable)", s)
}

// Classification summarizes the selected branch channels.
type Classification string

const (
	ClassificationStable      Classification = "STABLE"
	ClassificationBeta        Classification = "BETA"
	ClassificationDevelopment Classification = "DEVELOPMENT"
)

// ClassificationRule matches a primary/secondary branch pair.
type ClassificationRule struct {
	Name   string
	Match  func(primary, secondary Branch) bool
	Result Classification
}

// ClassificationRules is evaluated top to bottom; the first match wins.
// The unstable rule comes first so that unstable always yields DEVELOPMENT.
var ClassificationRules = []ClassificationRule{
	{
		Name: "any-unstable",
		Match: func(p, s Branch) bool {
			return p == BranchUnstable || s == BranchUnstable
		},
		Result: ClassificationDevelopment,
	},
	{
		Name: "stable-stable",
		Match: func(p, s Branch) bool {
			return p == BranchStable && s == BranchStable
		},
		Result: ClassificationStable,
	},
	{
		Name: "stable-testing",
		Match: func(p, s Branch) bool {
			return p == BranchStable && s == BranchTesting
		},
		Result: ClassificationBeta,
	},
}

// Classify applies ClassificationRules to a two-component branch pair, falling back to BETA.
func Classify(primary, secondary Branch) Classification {
	for _, rule := range ClassificationRules {
		if rule.Match(primary, secondary) {
			return rule.Result
		}
	}
	return ClassificationBeta
}
