package service

import (
	"context"
	"fmt"
	"path"
	"time"

	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"

	"github.com/imageforge/tools/pkg/images/application/model"
)

// SourceProvider synchronizes source branches into a local cache and
// materializes clean working copies from it.
type SourceProvider interface {
	Sync(ctx context.Context, remote string, cacheRoot string, branch string) (string, error)
	Export(cacheDir string, destination string) error
}

type BuildOptions struct {
	Tag       string
	Target    string
	CacheFrom []string
}

// Engine drives the external container tooling. Every method issues one
// conceptual command and reports its outcome as an error.
type Engine interface {
	Pull(ctx context.Context, ref string) error
	LocalImages(ctx context.Context) ([]string, error)
	Build(ctx context.Context, contextDir string, options BuildOptions) error
	Tag(ctx context.Context, source string, target string) error
	Login(ctx context.Context, username string, password string) error
	Push(ctx context.Context, ref string) error
	Run(ctx context.Context, ref string, args []string) error
}

type Orchestrator interface {
	Prepare(ctx context.Context, config model.Config, images []model.Image) error
	Build(ctx context.Context, config model.Config, images []model.Image) error
	Push(ctx context.Context, config model.Config, images []model.Image) error
	Test(ctx context.Context, config model.Config, images []model.Image) error
}

// Toolchain images use the built compiler as entrypoint, so asking for the
// version exercises the image without knowing anything else about it.
var smokeTestArgs = []string{"--version"}

func NewOrchestrator(
	logger applogger.Logger,
	sourceProvider SourceProvider,
	engine Engine,
	templates TemplateStore,
) Orchestrator {
	return &orchestrator{
		logger:         logger,
		sourceProvider: sourceProvider,
		engine:         engine,
		templates:      templates,
	}
}

type orchestrator struct {
	logger         applogger.Logger
	sourceProvider SourceProvider
	engine         Engine
	templates      TemplateStore
}

func (o orchestrator) Prepare(ctx context.Context, config model.Config, images []model.Image) error {
	err := requireConfig("prepare", []requiredField{
		{"git-repository", config.GitRepository},
		{"travis-cache", config.TravisCache},
	})
	if err != nil {
		return err
	}
	return iterateImages(images, func(image model.Image) error {
		return o.prepare(ctx, config, image)
	})
}

func (o orchestrator) Build(ctx context.Context, config model.Config, images []model.Image) error {
	err := requireConfig("build", []requiredField{
		{"docker-repository", config.DockerRepository},
	})
	if err != nil {
		return err
	}
	return iterateImages(images, func(image model.Image) error {
		return o.build(ctx, config, image)
	})
}

func (o orchestrator) Push(ctx context.Context, config model.Config, images []model.Image) error {
	err := requireConfig("push", []requiredField{
		{"docker-repository", config.DockerRepository},
		{"docker-username", config.DockerUsername},
		{"docker-password", config.DockerPassword},
	})
	if err != nil {
		return err
	}
	return iterateImages(images, func(image model.Image) error {
		return o.push(ctx, config, image)
	})
}

func (o orchestrator) Test(ctx context.Context, config model.Config, images []model.Image) error {
	err := requireConfig("test", []requiredField{
		{"docker-repository", config.DockerRepository},
	})
	if err != nil {
		return err
	}
	return iterateImages(images, func(image model.Image) error {
		ref := imageRef(config, image.CanonicalTag())
		o.logger.Info(fmt.Sprintf("smoke testing \"%v\"...", ref))
		return o.engine.Run(ctx, ref, smokeTestArgs)
	})
}

func (o orchestrator) prepare(ctx context.Context, config model.Config, image model.Image) error {
	o.logger.Info(fmt.Sprintf("preparing sources for \"%v\" from branch \"%v\"...", image.CanonicalTag(), image.Branch))
	start := time.Now()
	defer func() {
		o.logger.Info(fmt.Sprintf("done in %v", time.Since(start).String()))
	}()

	cacheDir, err := o.sourceProvider.Sync(ctx, config.GitRepository, config.TravisCache, image.Branch)
	if err != nil {
		return err
	}
	sourceDir := path.Join(image.Directory(), "source")
	err = o.sourceProvider.Export(cacheDir, sourceDir)
	if err != nil {
		return err
	}
	if image.Patches != "" {
		return o.templates.CopyPatchSet(image.Patches, path.Join(sourceDir, "patches"))
	}
	return nil
}

func (o orchestrator) build(ctx context.Context, config model.Config, image model.Image) error {
	canonical := imageRef(config, image.CanonicalTag())
	o.logger.Info(fmt.Sprintf("building \"%v\"...", canonical))
	start := time.Now()
	defer func() {
		o.logger.Info(fmt.Sprintf("done in %v", time.Since(start).String()))
	}()

	// The previous image seeds the builder's layer cache. It may not exist
	// yet, so a failed pull is logged and the build continues.
	err := o.engine.Pull(ctx, canonical)
	if err != nil {
		o.logger.Info(fmt.Sprintf("no previous image \"%v\" to seed the cache: %v", canonical, err))
	}
	cacheFrom, err := o.engine.LocalImages(ctx)
	if err != nil {
		return err
	}
	err = o.engine.Build(ctx, image.Directory(), BuildOptions{
		Tag:       canonical,
		Target:    image.Target,
		CacheFrom: cacheFrom,
	})
	if err != nil {
		return err
	}
	for _, alias := range image.Aliases() {
		err = o.engine.Tag(ctx, canonical, imageRef(config, alias))
		if err != nil {
			return err
		}
	}
	return nil
}

func (o orchestrator) push(ctx context.Context, config model.Config, image model.Image) error {
	err := o.engine.Login(ctx, config.DockerUsername, config.DockerPassword)
	if err != nil {
		return err
	}
	for _, tag := range image.Tags {
		ref := imageRef(config, tag)
		o.logger.Info(fmt.Sprintf("pushing \"%v\"...", ref))
		err = o.engine.Push(ctx, ref)
		if err != nil {
			return err
		}
	}
	return nil
}

func imageRef(config model.Config, tag string) string {
	return config.DockerRepository + ":" + tag
}

type requiredField struct {
	name  string
	value string
}

func requireConfig(command string, fields []requiredField) error {
	var missing []string
	for _, field := range fields {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return model.ConfigurationError{Command: command, Missing: missing}
	}
	return nil
}

func iterateImages(images []model.Image, f func(image model.Image) error) error {
	for _, image := range images {
		err := f(image)
		if err != nil {
			return err
		}
	}
	return nil
}
