package plugin

import (
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"
)

// idPattern keeps plugin ids lowercase and hyphenated so they can double as
// storage keys and CLI arguments.
var idPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Info is the immutable identity of a plugin.
type Info struct {
	ID          string
	Name        string
	Version     *semver.Version
	Description string
	Author      string
}

// NewInfo validates and builds plugin identity.
func NewInfo(id, name, version string) (Info, error) {
	if !idPattern.MatchString(id) {
		return Info{}, fmt.Errorf("%w: id %q must be lowercase words joined by hyphens", ErrInvalidInfo, id)
	}
	if name == "" {
		return Info{}, fmt.Errorf("%w: %s has no display name", ErrInvalidInfo, id)
	}
	v, err := semver.StrictNewVersion(version)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %s version %q: %v", ErrInvalidInfo, id, version, err)
	}
	return Info{ID: id, Name: name, Version: v}, nil
}

// MustInfo is like NewInfo but panics on error. Intended for package-level
// plugin definitions.
func MustInfo(id, name, version string) Info {
	info, err := NewInfo(id, name, version)
	if err != nil {
		panic(err)
	}
	return info
}

// WithDescription returns a copy of i with the description set.
func (i Info) WithDescription(d string) Info {
	i.Description = d
	return i
}

// WithAuthor returns a copy of i with the author set.
func (i Info) WithAuthor(a string) Info {
	i.Author = a
	return i
}

// VersionString returns the version, or "" when unset.
func (i Info) VersionString() string {
	if i.Version == nil {
		return ""
	}
	return i.Version.String()
}

func (i Info) String() string {
	return i.ID + "@" + i.VersionString()
}
