package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/tss-calculator/go-lib/pkg/infrastructure/logger"

	"github.com/imageforge/tools/pkg/images/application/model"
	"github.com/imageforge/tools/pkg/images/infrastructure/dependency"

	"github.com/urfave/cli/v2"
)

func main() {
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()
	ctx = listenOSKillSignalsContext(ctx)
	mainLogger := logger.NewTextLogger()

	container := dependency.NewDependencyContainer(mainLogger, os.Getenv("SILENT") != "")
	ctx = dependency.ContainerToContext(ctx, container)

	app := &cli.App{
		Name:  "imageforge",
		Usage: "generate and drive container image build pipelines from a catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "source",
				Usage: "image catalog location",
				Value: defaultSource(),
			},
		},
		Commands: cli.Commands{
			&cli.Command{
				Name:      "prepare",
				Usage:     "sync branches and stage clean source trees",
				ArgsUsage: "[tag ...]",
				Flags: []cli.Flag{
					gitRepositoryFlag,
					travisCacheFlag,
				},
				Action: withUsageOnConfigError(func(c *cli.Context) error {
					return prepare(c.Context, configFromCLI(c), c.Args().Slice())
				}),
			},
			&cli.Command{
				Name:      "build",
				Usage:     "build and tag images",
				ArgsUsage: "[tag ...]",
				Flags: []cli.Flag{
					dockerRepositoryFlag,
				},
				Action: withUsageOnConfigError(func(c *cli.Context) error {
					return build(c.Context, configFromCLI(c), c.Args().Slice())
				}),
			},
			&cli.Command{
				Name:      "push",
				Usage:     "authenticate and push every image tag",
				ArgsUsage: "[tag ...]",
				Flags: []cli.Flag{
					dockerRepositoryFlag,
					dockerUsernameFlag,
					dockerPasswordFlag,
				},
				Action: withUsageOnConfigError(func(c *cli.Context) error {
					return push(c.Context, configFromCLI(c), c.Args().Slice())
				}),
			},
			&cli.Command{
				Name:      "test",
				Usage:     "smoke test built images",
				ArgsUsage: "[tag ...]",
				Flags: []cli.Flag{
					dockerRepositoryFlag,
				},
				Action: withUsageOnConfigError(func(c *cli.Context) error {
					return test(c.Context, configFromCLI(c), c.Args().Slice())
				}),
			},
			&cli.Command{
				Name:      "generate",
				Usage:     "regenerate Dockerfiles, README and CI matrix",
				ArgsUsage: "[tag ...]",
				Action: withUsageOnConfigError(func(c *cli.Context) error {
					return generate(c.Context, configFromCLI(c), c.Args().Slice())
				}),
			},
		},
	}
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		mainLogger.FatalError(err, "failed execute command "+strings.Join(os.Args, " "))
	}
}

var (
	gitRepositoryFlag = &cli.StringFlag{
		Name:    "git-repository",
		Usage:   "source-control remote to sync branches from",
		EnvVars: []string{"GIT_REPOSITORY"},
	}
	travisCacheFlag = &cli.StringFlag{
		Name:    "travis-cache",
		Usage:   "local cache root for synced branches",
		EnvVars: []string{"TRAVIS_CACHE"},
	}
	dockerRepositoryFlag = &cli.StringFlag{
		Name:    "docker-repository",
		Usage:   "target image repository",
		EnvVars: []string{"DOCKER_REPOSITORY"},
	}
	dockerUsernameFlag = &cli.StringFlag{
		Name:    "docker-username",
		Usage:   "registry username",
		EnvVars: []string{"DOCKER_USERNAME"},
	}
	dockerPasswordFlag = &cli.StringFlag{
		Name:    "docker-password",
		Usage:   "registry password",
		EnvVars: []string{"DOCKER_PASSWORD"},
	}
)

func configFromCLI(c *cli.Context) model.Config {
	return model.Config{
		Source:           c.String("source"),
		GitRepository:    c.String("git-repository"),
		TravisCache:      c.String("travis-cache"),
		DockerRepository: c.String("docker-repository"),
		DockerUsername:   c.String("docker-username"),
		DockerPassword:   c.String("docker-password"),
	}
}

// withUsageOnConfigError prints the command help before a missing-config
// error surfaces, matching how usage problems are reported.
func withUsageOnConfigError(action cli.ActionFunc) cli.ActionFunc {
	return func(c *cli.Context) error {
		err := action(c)
		var configErr model.ConfigurationError
		if err != nil && errors.As(err, &configErr) {
			_ = cli.ShowSubcommandHelp(c)
		}
		return err
	}
}

func defaultSource() string {
	executable, err := os.Executable()
	if err != nil {
		return "images.yml"
	}
	return filepath.Join(filepath.Dir(executable), "images.yml")
}

func listenOSKillSignalsContext(ctx context.Context) context.Context {
	var cancelFunc context.CancelFunc
	ctx, cancelFunc = context.WithCancel(ctx)
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		select {
		case <-ch:
			cancelFunc()
		case <-ctx.Done():
			return
		}
	}()
	return ctx
}
