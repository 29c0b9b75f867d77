package command_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tss-calculator/go-lib/pkg/infrastructure/logger"

	"github.com/imageforge/tools/pkg/images/infrastructure/command"
)

func newRunner() command.Runner {
	return command.NewCommandRunner(logger.NewTextLogger(), true)
}

func TestExecuteCapturesOutput(t *testing.T) {
	result, err := newRunner().Execute(context.Background(), command.Command{
		Executable: "sh",
		Args:       []string{"-c", "echo hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "hello\n", result.Output)
}

func TestExecuteReportsExitCode(t *testing.T) {
	result, err := newRunner().Execute(context.Background(), command.Command{
		Executable: "sh",
		Args:       []string{"-c", "echo oops; exit 3"},
	})
	require.Error(t, err)
	var exitErr command.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.ExitCode)
	assert.Equal(t, 3, result.ExitCode)
	assert.Contains(t, exitErr.Output, "oops")
	assert.Contains(t, exitErr.Error(), "exited with code 3")
}

func TestExecuteRespectsWorkDir(t *testing.T) {
	dir := t.TempDir()
	result, err := newRunner().Execute(context.Background(), command.Command{
		WorkDir:    dir,
		Executable: "pwd",
	})
	require.NoError(t, err)
	assert.Contains(t, result.Output, dir)
}

func TestExecuteRequiresExecutable(t *testing.T) {
	_, err := newRunner().Execute(context.Background(), command.Command{})
	require.Error(t, err)
}
