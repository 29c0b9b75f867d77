package catalog

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/imageforge/tools/pkg/images/application/model"
)

// LoadError reports a missing, malformed or invalid catalog source.
type LoadError struct {
	Path string
	Err  error
}

func (e LoadError) Error() string {
	return fmt.Sprintf("failed to load catalog %v: %v", e.Path, e.Err)
}

func (e LoadError) Unwrap() error {
	return e.Err
}

// stringValue tolerates loosely-typed catalog encodings: a bare numeric
// version or tag is coerced to its literal string form.
type stringValue string

func (s *stringValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("expected scalar value, got %v", node.Tag)
	}
	*s = stringValue(node.Value)
	return nil
}

type imageEntry struct {
	Version   stringValue   `yaml:"version"`
	Template  string        `yaml:"template"`
	Branch    string        `yaml:"branch"`
	Target    string        `yaml:"target"`
	Tags      []stringValue `yaml:"tags"`
	Configure string        `yaml:"configure"`
	Patches   string        `yaml:"patches"`
}

// Load parses the catalog source into image records, preserving declaration
// order. Unknown fields and incomplete entries are rejected at load time.
func Load(path string) (model.Catalog, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, LoadError{Path: path, Err: err}
	}
	decoder := yaml.NewDecoder(bytes.NewReader(body))
	decoder.KnownFields(true)
	var entries []imageEntry
	err = decoder.Decode(&entries)
	if err != nil {
		return nil, LoadError{Path: path, Err: err}
	}
	images := make(model.Catalog, 0, len(entries))
	for i, entry := range entries {
		err = validateEntry(entry)
		if err != nil {
			return nil, LoadError{Path: path, Err: errors.Wrapf(err, "image entry %d", i)}
		}
		images = append(images, mapEntryToImage(entry))
	}
	return images, nil
}

func validateEntry(entry imageEntry) error {
	switch {
	case entry.Version == "":
		return errors.New("version is required")
	case entry.Template == "":
		return errors.New("template is required")
	case entry.Branch == "":
		return errors.New("branch is required")
	case len(entry.Tags) == 0:
		return errors.New("at least one tag is required")
	}
	for _, tag := range entry.Tags {
		if tag == "" {
			return errors.New("tags can not be empty")
		}
	}
	return nil
}

func mapEntryToImage(entry imageEntry) model.Image {
	tags := make([]string, 0, len(entry.Tags))
	for _, tag := range entry.Tags {
		tags = append(tags, string(tag))
	}
	return model.Image{
		Version:   string(entry.Version),
		Template:  entry.Template,
		Branch:    entry.Branch,
		Target:    entry.Target,
		Tags:      tags,
		Configure: entry.Configure,
		Patches:   entry.Patches,
	}
}
