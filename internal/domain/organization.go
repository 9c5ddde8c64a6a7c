package domain

// OrganizationDefaults holds the parameters automatic mode uses for an organization.
type OrganizationDefaults struct {
	Organization   string
	Distribution   string
	ProfileRepoURL string
	BuildDir       string
	Edition        string
	Branches       BranchMap
	Kernel         string
}

var organizationTable = []OrganizationDefaults{
	{
		Organization:   "communitybig",
		Distribution:   "bigcommunity",
		ProfileRepoURL: "https://github.com/communitybig/iso-profiles",
		BuildDir:       "community",
		Edition:        "xfce",
		Branches:       BranchMap{ComponentManjaro: BranchStable, ComponentCommunity: BranchStable},
		Kernel:         "lts",
	},
	{
		Organization:   "biglinux",
		Distribution:   "biglinux",
		ProfileRepoURL: "https://github.com/biglinux/iso-profiles",
		BuildDir:       "biglinux",
		Edition:        "kde",
		Branches:       BranchMap{ComponentManjaro: BranchStable},
		Kernel:         "latest",
	},
	{
		Organization:   "bigbuild-labs",
		Distribution:   "archlinux",
		ProfileRepoURL: "https://github.com/bigbuild-labs/iso-profiles",
		BuildDir:       "archlinux",
		Edition:        "base",
		Branches:       BranchMap{},
		Kernel:         "lts",
	},
}

// Organizations returns the known organizations in menu order.
func Organizations() []string {
	out := make([]string, 0, len(organizationTable))
	for _, o := range organizationTable {
		out = append(out, o.Organization)
	}
	return out
}

// ProfileRepositories returns the profile repositories of every known organization.
func ProfileRepositories() []string {
	out := make([]string, 0, len(organizationTable))
	for _, o := range organizationTable {
		out = append(out, o.ProfileRepoURL)
	}
	return out
}

// DefaultsFor returns a copy of the default table entry for org.
func DefaultsFor(org string) (OrganizationDefaults, bool) {
	for _, o := range organizationTable {
		if o.Organization == org {
			cp := o
			cp.Branches = make(BranchMap, len(o.Branches))
			for k, v := range o.Branches {
				cp.Branches[k] = v
			}
			return cp, true
		}
	}
	return OrganizationDefaults{}, false
}

// Parameters converts the defaults into build parameters.
func (d OrganizationDefaults) Parameters() BuildParameters {
	branches := make(BranchMap, len(d.Branches))
	for k, v := range d.Branches {
		branches[k] = v
	}
	return BuildParameters{
		Organization:   d.Organization,
		Distribution:   d.Distribution,
		ProfileRepoURL: d.ProfileRepoURL,
		BuildDir:       d.BuildDir,
		Edition:        d.Edition,
		Branches:       branches,
		Kernel:         d.Kernel,
	}
}

// FallbackBuildDirs is offered when the profile repository cannot be listed.
var FallbackBuildDirs = []string{"archlinux", "bigcommunity", "biglinux", "community", "manjaro"}

// FallbackEditions is offered when the editions of a build directory cannot be listed.
var FallbackEditions = []string{"base", "budgie", "cinnamon", "cosmic", "gnome", "kde", "mate", "xfce"}
