package provider

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/imageforge/tools/pkg/images/application/service"
	"github.com/imageforge/tools/pkg/images/infrastructure/command"
)

func NewSourceProvider(runner command.Runner) service.SourceProvider {
	return &sourceProvider{
		runner: runner,
	}
}

type sourceProvider struct {
	runner command.Runner
}

// Sync brings the branch cache up to date, cloning on first use. The cache
// directory is keyed by branch name so reruns reuse the fetched history.
func (p sourceProvider) Sync(ctx context.Context, remote string, cacheRoot string, branch string) (string, error) {
	cacheDir := filepath.Join(cacheRoot, branch)
	_, err := os.Stat(cacheDir)
	if os.IsNotExist(err) {
		_, err = p.runner.Execute(ctx, command.Command{
			Executable: "git",
			Args:       []string{"clone", "--branch", branch, remote, cacheDir},
		})
		return cacheDir, errors.Wrapf(err, "failed to clone branch %v", branch)
	}
	if err != nil {
		return "", err
	}
	_, err = p.runner.Execute(ctx, command.Command{
		WorkDir:    cacheDir,
		Executable: "git",
		Args:       []string{"fetch", "origin", branch},
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to fetch branch %v", branch)
	}
	_, err = p.runner.Execute(ctx, command.Command{
		WorkDir:    cacheDir,
		Executable: "git",
		Args:       []string{"checkout", "--force", "FETCH_HEAD"},
	})
	return cacheDir, errors.Wrapf(err, "failed to checkout branch %v", branch)
}

// Export replaces destination with a copy of the synchronized tree, leaving
// version-control metadata behind so it does not perturb build-cache
// fingerprints. The old destination is removed first, so reruns are
// idempotent with respect to stray files.
func (p sourceProvider) Export(cacheDir string, destination string) error {
	err := os.RemoveAll(destination)
	if err != nil {
		return errors.Wrapf(err, "failed to clean %v", destination)
	}
	err = os.MkdirAll(destination, 0o755)
	if err != nil {
		return errors.Wrapf(err, "failed to create %v", destination)
	}
	return errors.Wrapf(copyTree(cacheDir, destination), "failed to export %v", cacheDir)
}

func copyTree(src string, dst string) error {
	return filepath.WalkDir(src, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() && entry.Name() == ".git" {
			return filepath.SkipDir
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		target := filepath.Join(dst, rel)
		switch {
		case entry.IsDir():
			return os.MkdirAll(target, 0o755)
		case entry.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case entry.Type().IsRegular():
			return copyFile(path, target)
		default:
			return nil
		}
	})
}

func copyFile(src string, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	_, err = io.Copy(out, in)
	closeErr := out.Close()
	if err != nil {
		return err
	}
	return closeErr
}
