package model

import "path"

// Image describes one build configuration from the catalog. Entries may
// share a (Version, Template) pair when they are different build targets
// of the same template.
type Image struct {
	Version   string
	Template  string
	Branch    string
	Target    string
	Tags      []string
	Configure string
	Patches   string
}

type Catalog = []Image

func (i Image) Directory() string {
	return path.Join(i.Version, i.Template)
}

func (i Image) DockerfilePath() string {
	return path.Join(i.Directory(), "Dockerfile")
}

// CanonicalTag is the image identity used for filtering, building and pushing.
func (i Image) CanonicalTag() string {
	return i.Tags[0]
}

func (i Image) Aliases() []string {
	return i.Tags[1:]
}

func (i Image) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ConfigureSuffix renders the extra configure flags so they can be appended
// to a command line: empty when unset, otherwise a single leading space
// followed by the flags.
func (i Image) ConfigureSuffix() string {
	if i.Configure == "" {
		return ""
	}
	return " " + i.Configure
}
