package domain

import (
	"sort"

	"github.com/Masterminds/semver/v3"
)

// TagVersion pairs a git tag name with its parsed semantic version.
type TagVersion struct {
	Name    string
	Version *semver.Version
}

// SplitTagsByVersion separates semver tags, sorted newest first, from tags that do not parse.
func SplitTagsByVersion(tags []string) ([]TagVersion, []string) {
	var versioned []TagVersion
	var other []string
	for _, t := range tags {
		v, err := semver.NewVersion(t)
		if err != nil {
			other = append(other, t)
			continue
		}
		versioned = append(versioned, TagVersion{Name: t, Version: v})
	}
	sort.SliceStable(versioned, func(i, j int) bool {
		return versioned[i].Version.GreaterThan(versioned[j].Version)
	})
	return versioned, other
}

// TagsToDelete returns every tag except the keep newest semver tags.
// Tags that are not semantic versions are never selected.
func TagsToDelete(tags []string, keep int) []string {
	versioned, _ := SplitTagsByVersion(tags)
	if keep < 0 {
		keep = 0
	}
	if keep >= len(versioned) {
		return nil
	}
	out := make([]string, 0, len(versioned)-keep)
	for _, tv := range versioned[keep:] {
		out = append(out, tv.Name)
	}
	return out
}
