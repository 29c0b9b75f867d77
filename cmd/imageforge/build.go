package main

import (
	stdcontext "context"

	"github.com/imageforge/tools/pkg/images/application/model"
	"github.com/imageforge/tools/pkg/images/infrastructure/dependency"
)

func build(ctx stdcontext.Context, config model.Config, tags []string) error {
	dependencyContainer, err := dependency.ContainerFromContext(ctx)
	if err != nil {
		return err
	}
	images, err := resolveImages(config, tags)
	if err != nil {
		return err
	}
	return dependencyContainer.Orchestrator().Build(ctx, config, images)
}
