package main

import (
	"github.com/imageforge/tools/pkg/images/application/model"
	"github.com/imageforge/tools/pkg/images/application/service"
	"github.com/imageforge/tools/pkg/images/infrastructure/catalog"
)

func resolveImages(config model.Config, tags []string) ([]model.Image, error) {
	loaded, err := catalog.Load(config.Source)
	if err != nil {
		return nil, err
	}
	return service.Resolve(loaded, tags)
}
