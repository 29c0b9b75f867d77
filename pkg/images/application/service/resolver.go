package service

import (
	"github.com/imageforge/tools/pkg/images/application/model"
)

// Resolve maps requested tags onto catalog entries. An empty request returns
// the full catalog unchanged. Otherwise the result is ordered by the request,
// each tag resolving to the first catalog entry carrying it; the same entry
// may appear more than once when two requested tags resolve to it. Every
// unmatched tag is collected so a single ResolutionError reports them all.
func Resolve(catalog model.Catalog, requestedTags []string) ([]model.Image, error) {
	if len(requestedTags) == 0 {
		return catalog, nil
	}
	resolved := make([]model.Image, 0, len(requestedTags))
	var unmatched []string
	for _, tag := range requestedTags {
		image, found := findByTag(catalog, tag)
		if !found {
			unmatched = append(unmatched, tag)
			continue
		}
		resolved = append(resolved, image)
	}
	if len(unmatched) > 0 {
		return nil, model.ResolutionError{Unmatched: unmatched}
	}
	return resolved, nil
}

func findByTag(catalog model.Catalog, tag string) (model.Image, bool) {
	for _, image := range catalog {
		if image.HasTag(tag) {
			return image, true
		}
	}
	return model.Image{}, false
}
