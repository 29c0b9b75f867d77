package command

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"
)

type Command struct {
	WorkDir    string
	Executable string
	Args       []string
	// Sensitive commands carry credentials and are never echoed.
	Sensitive bool
}

// Result is the structured outcome of one external invocation. There is no
// ambient last-exit-status: every call returns its own code and output.
type Result struct {
	ExitCode int
	Output   string
}

type Runner interface {
	Execute(ctx context.Context, command Command) (Result, error)
}

// ExitError reports an external process that exited non-zero.
type ExitError struct {
	Command  string
	ExitCode int
	Output   string
}

func (e ExitError) Error() string {
	return fmt.Sprintf("command %q exited with code %d", e.Command, e.ExitCode)
}

func NewCommandRunner(logger applogger.Logger, silentMode bool) Runner {
	return &runner{
		logger:     logger,
		silentMode: silentMode,
	}
}

type runner struct {
	logger     applogger.Logger
	silentMode bool
}

func (r runner) Execute(ctx context.Context, command Command) (Result, error) {
	if command.Executable == "" {
		return Result{}, errors.New("command executable can not be empty")
	}
	// nolint:gosec
	cmd := exec.CommandContext(ctx, command.Executable, command.Args...)
	cmd.Dir = command.WorkDir
	if !r.silentMode && !command.Sensitive {
		r.logger.Debug(cmd.String())
	}
	output, err := cmd.CombinedOutput()
	result := Result{Output: string(output)}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, ExitError{
				Command:  describe(command),
				ExitCode: exitErr.ExitCode(),
				Output:   result.Output,
			}
		}
		return result, err
	}
	return result, nil
}

func describe(command Command) string {
	if command.Sensitive {
		return command.Executable
	}
	name := command.Executable
	for _, arg := range command.Args {
		name += " " + arg
	}
	return name
}
