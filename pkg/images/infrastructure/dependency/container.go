package dependency

import (
	"context"
	"errors"

	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"

	"github.com/imageforge/tools/pkg/images/application/service"
	"github.com/imageforge/tools/pkg/images/infrastructure/command"
	"github.com/imageforge/tools/pkg/images/infrastructure/docker"
	"github.com/imageforge/tools/pkg/images/infrastructure/provider"
	"github.com/imageforge/tools/pkg/images/infrastructure/templates"
)

var dependencyContainer = struct{}{}

type Container interface {
	Orchestrator() service.Orchestrator
	Generator() service.Generator
}

func NewDependencyContainer(logger applogger.Logger, silentMode bool) Container {
	runner := command.NewCommandRunner(logger, silentMode)
	sourceProvider := provider.NewSourceProvider(runner)
	engine := docker.NewEngine(runner)
	templateStore := templates.NewStore("templates")
	orchestrator := service.NewOrchestrator(logger, sourceProvider, engine, templateStore)
	generator := service.NewGenerator(logger, templateStore, ".")

	return &container{
		orchestrator: orchestrator,
		generator:    generator,
	}
}

type container struct {
	orchestrator service.Orchestrator
	generator    service.Generator
}

func (c *container) Orchestrator() service.Orchestrator {
	return c.orchestrator
}

func (c *container) Generator() service.Generator {
	return c.generator
}

func ContainerFromContext(ctx context.Context) (Container, error) {
	v := ctx.Value(dependencyContainer)
	if c, ok := v.(Container); ok {
		return c, nil
	}
	return nil, errors.New("dependency container not found")
}

func ContainerToContext(ctx context.Context, c Container) context.Context {
	return context.WithValue(ctx, dependencyContainer, c)
}
