package domain

import (
	"fmt"
	"strings"
	"time"
)

// Component is a part of the distribution whose packages come from a selectable branch.
type Component string

const (
	ComponentManjaro   Component = "manjaro"
	ComponentCommunity Component = "community"
)

// AllComponents lists every component carried in the dispatch payload.
var AllComponents = []Component{ComponentManjaro, ComponentCommunity}

// BranchMap maps a component to its selected branch. Components that do not apply to the
// selected distribution hold the empty branch.
type BranchMap map[Component]Branch

// Distribution describes which components require a branch selection.
// Components are ordered: the first one is the primary component.
type Distribution struct {
	Name       string
	Components []Component
}

var distributions = []Distribution{
	{Name: "bigcommunity", Components: []Component{ComponentManjaro, ComponentCommunity}},
	{Name: "biglinux", Components: []Component{ComponentManjaro}},
	{Name: "archlinux"},
}

// Distributions returns the names of the supported distributions in menu order.
func Distributions() []string {
	names := make([]string, 0, len(distributions))
	for _, d := range distributions {
		names = append(names, d.Name)
	}
	return names
}

// LookupDistribution finds a distribution by name.
func LookupDistribution(name string) (Distribution, bool) {
	for _, d := range distributions {
		if d.Name == name {
			return d, true
		}
	}
	return Distribution{}, false
}

// Uses reports whether the distribution asks for a branch of the component.
func (d Distribution) Uses(c Component) bool {
	for _, own := range d.Components {
		if own == c {
			return true
		}
	}
	return false
}

// Normalize returns a copy of branches with an entry for every known component;
// entries the distribution does not use are forced to the empty branch.
func (d Distribution) Normalize(branches BranchMap) BranchMap {
	out := make(BranchMap, len(AllComponents))
	for _, c := range AllComponents {
		if d.Uses(c) {
			out[c] = branches[c]
		} else {
			out[c] = ""
		}
	}
	return out
}

// Classify derives the classification tag for the selected branches.
func (d Distribution) Classify(branches BranchMap) Classification {
	switch len(d.Components) {
	case 0:
		return ClassificationStable
	case 1:
		return Classification(strings.ToUpper(string(branches[d.Components[0]])))
	default:
		return Classify(branches[d.Components[0]], branches[d.Components[1]])
	}
}

// Kernels lists the selectable kernel variants.
var Kernels = []string{"lts", "latest", "oldlts", "xanmod"}

// BuildParameters is the complete set of values needed to dispatch an ISO build.
type BuildParameters struct {
	Organization   string
	Distribution   string
	ProfileRepoURL string
	BuildDir       string
	Edition        string
	Branches       BranchMap
	Kernel         string
	DebugSession   bool
	ReleaseTag     string
}

// Validate checks that every required field is set before a dispatch is attempted.
func (p BuildParameters) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"organization", p.Organization},
		{"distribution", p.Distribution},
		{"profile repository", p.ProfileRepoURL},
		{"build directory", p.BuildDir},
		{"edition", p.Edition},
		{"kernel", p.Kernel},
		{"release tag", p.ReleaseTag},
	}
	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}
	dist, ok := LookupDistribution(p.Distribution)
	if p.Distribution != "" && !ok {
		return fmt.Errorf("unknown distribution %q", p.Distribution)
	}
	for _, c := range dist.Components {
		if p.Branches[c] == "" {
			missing = append(missing, string(c)+" branch")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrConfigurationMissing, strings.Join(missing, ", "))
	}
	return nil
}

// Classification returns the classification tag for the parameters.
func (p BuildParameters) Classification() Classification {
	dist, _ := LookupDistribution(p.Distribution)
	return dist.Classify(p.Branches)
}

// EventType builds the repository_dispatch event type. Two dispatches within the same minute
// for the same distribution, classification and edition produce the same value.
func (p BuildParameters) EventType() string {
	return fmt.Sprintf("ISO-%s_%s_%s_%s",
		p.Distribution, p.Classification(), strings.ToLower(p.Edition), p.ReleaseTag)
}

// ClientPayload renders every parameter for the dispatch body. GitHub accepts at most ten
// top-level properties.
func (p BuildParameters) ClientPayload() map[string]any {
	dist, _ := LookupDistribution(p.Distribution)
	branches := dist.Normalize(p.Branches)
	return map[string]any{
		"organization":      p.Organization,
		"distroname":        p.Distribution,
		"iso_profiles_repo": p.ProfileRepoURL,
		"build_dir":         p.BuildDir,
		"edition":           p.Edition,
		"manjaro_branch":    string(branches[ComponentManjaro]),
		"community_branch":  string(branches[ComponentCommunity]),
		"kernel":            p.Kernel,
		"debug_session":     p.DebugSession,
		"release_tag":       p.ReleaseTag,
	}
}

// ReleaseTagLayout is minute-granular.
const ReleaseTagLayout = "2006-01-02_15-04"

// ReleaseTag formats t as a release tag.
func ReleaseTag(t time.Time) string {
	return t.Format(ReleaseTagLayout)
}
