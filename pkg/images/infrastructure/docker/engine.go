package docker

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/imageforge/tools/pkg/images/application/service"
	"github.com/imageforge/tools/pkg/images/infrastructure/command"
)

func NewEngine(runner command.Runner) service.Engine {
	return &engine{
		runner: runner,
	}
}

type engine struct {
	runner command.Runner
}

func (e engine) Pull(ctx context.Context, ref string) error {
	_, err := e.runner.Execute(ctx, command.Command{
		Executable: "docker",
		Args:       []string{"pull", ref},
	})
	return errors.Wrapf(err, "failed to pull %v", ref)
}

// LocalImages lists every repository:tag pair known to the local daemon so
// they can all be offered as cache sources.
func (e engine) LocalImages(ctx context.Context) ([]string, error) {
	result, err := e.runner.Execute(ctx, command.Command{
		Executable: "docker",
		Args:       []string{"images", "--format", "{{.Repository}}:{{.Tag}}"},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list local images")
	}
	var refs []string
	for _, line := range strings.Split(result.Output, "\n") {
		ref := strings.TrimSpace(line)
		if ref == "" || strings.Contains(ref, "<none>") {
			continue
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (e engine) Build(ctx context.Context, contextDir string, options service.BuildOptions) error {
	args := []string{"build", "--pull"}
	for _, ref := range options.CacheFrom {
		args = append(args, "--cache-from", ref)
	}
	if options.Target != "" {
		args = append(args, "--target", options.Target)
	}
	args = append(args, "-t", options.Tag, ".")
	_, err := e.runner.Execute(ctx, command.Command{
		WorkDir:    contextDir,
		Executable: "docker",
		Args:       args,
	})
	return errors.Wrapf(err, "failed to build %v", options.Tag)
}

func (e engine) Tag(ctx context.Context, source string, target string) error {
	_, err := e.runner.Execute(ctx, command.Command{
		Executable: "docker",
		Args:       []string{"tag", source, target},
	})
	return errors.Wrapf(err, "failed to tag %v as %v", source, target)
}

func (e engine) Login(ctx context.Context, username string, password string) error {
	_, err := e.runner.Execute(ctx, command.Command{
		Executable: "docker",
		Args:       []string{"login", "-u", username, "-p", password},
		Sensitive:  true,
	})
	return errors.Wrap(err, "failed to authenticate with registry")
}

func (e engine) Push(ctx context.Context, ref string) error {
	_, err := e.runner.Execute(ctx, command.Command{
		Executable: "docker",
		Args:       []string{"push", ref},
	})
	return errors.Wrapf(err, "failed to push %v", ref)
}

func (e engine) Run(ctx context.Context, ref string, args []string) error {
	runArgs := append([]string{"run", "--rm", ref}, args...)
	_, err := e.runner.Execute(ctx, command.Command{
		Executable: "docker",
		Args:       runArgs,
	})
	return errors.Wrapf(err, "failed to run %v", ref)
}
