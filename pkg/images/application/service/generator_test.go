package service_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tss-calculator/go-lib/pkg/infrastructure/logger"

	"github.com/imageforge/tools/pkg/images/application/model"
	"github.com/imageforge/tools/pkg/images/application/service"
	"github.com/imageforge/tools/pkg/images/infrastructure/templates"
)

const dockerfileTemplate = `FROM alpine:3.9 AS build
RUN git checkout {{ .Branch }} && ./configure --version={{ .Version }}{{ .Configure }}
FROM build AS prod
`

func writeTemplates(t *testing.T, root string) {
	t.Helper()
	templateDir := filepath.Join(root, "templates", "alpine", "3.9")
	require.NoError(t, os.MkdirAll(templateDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(templateDir, "Dockerfile"), []byte(dockerfileTemplate), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "templates", "README.md"), []byte("# Images\n\n{{ .Images }}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "templates", ".travis.yml"), []byte("env:\n  matrix:\n{{ .Matrix }}\n"), 0o644))

	patchDir := filepath.Join(root, "templates", "gcc-patches")
	require.NoError(t, os.MkdirAll(patchDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(patchDir, "0001-fix.patch"), []byte("--- a\n+++ b\n"), 0o644))
}

func newTestGenerator(t *testing.T) (service.Generator, string) {
	t.Helper()
	root := t.TempDir()
	writeTemplates(t, root)
	store := templates.NewStore(filepath.Join(root, "templates"))
	return service.NewGenerator(logger.NewTextLogger(), store, root), root
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func TestGenerateDockerfileSubstitutesPlaceholders(t *testing.T) {
	generator, root := newTestGenerator(t)
	images := []model.Image{
		{Version: "27.1", Template: "alpine/3.9", Branch: "releases/gcc-9", Tags: []string{"9.2.0"}, Configure: "--with-x"},
	}
	require.NoError(t, generator.Generate(images))

	content := readFile(t, filepath.Join(root, "27.1", "alpine", "3.9", "Dockerfile"))
	assert.Contains(t, content, "git checkout releases/gcc-9")
	assert.Contains(t, content, "--version=27.1 --with-x")
}

func TestGenerateDockerfileWithoutConfigureHasNoStraySpace(t *testing.T) {
	generator, root := newTestGenerator(t)
	images := []model.Image{
		{Version: "27.1", Template: "alpine/3.9", Branch: "master", Tags: []string{"9.2.0"}},
	}
	require.NoError(t, generator.Generate(images))

	content := readFile(t, filepath.Join(root, "27.1", "alpine", "3.9", "Dockerfile"))
	assert.Contains(t, content, "--version=27.1\n")
	assert.NotContains(t, content, "--version=27.1 ")
}

func TestGenerateCopiesPatchSet(t *testing.T) {
	generator, root := newTestGenerator(t)
	images := []model.Image{
		{Version: "27.1", Template: "alpine/3.9", Branch: "master", Tags: []string{"9.2.0"}, Patches: "gcc-patches"},
	}
	require.NoError(t, generator.Generate(images))

	patch := filepath.Join(root, "27.1", "alpine", "3.9", "patches", "0001-fix.patch")
	assert.FileExists(t, patch)
}

func TestGenerateRemovesStaleBuildContext(t *testing.T) {
	generator, root := newTestGenerator(t)
	stale := filepath.Join(root, "27.1", "alpine", "3.9", "stale.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	images := []model.Image{
		{Version: "27.1", Template: "alpine/3.9", Branch: "master", Tags: []string{"9.2.0"}},
	}
	require.NoError(t, generator.Generate(images))
	assert.NoFileExists(t, stale)
}

func TestGenerateIsIdempotent(t *testing.T) {
	generator, root := newTestGenerator(t)
	images := []model.Image{
		{Version: "27.1", Template: "alpine/3.9", Branch: "master", Tags: []string{"9.2.0", "latest"}, Configure: "--with-x"},
	}
	require.NoError(t, generator.Generate(images))
	first := map[string]string{
		"dockerfile": readFile(t, filepath.Join(root, "27.1", "alpine", "3.9", "Dockerfile")),
		"readme":     readFile(t, filepath.Join(root, "README.md")),
		"ci":         readFile(t, filepath.Join(root, ".travis.yml")),
	}
	require.NoError(t, generator.Generate(images))
	assert.Equal(t, first["dockerfile"], readFile(t, filepath.Join(root, "27.1", "alpine", "3.9", "Dockerfile")))
	assert.Equal(t, first["readme"], readFile(t, filepath.Join(root, "README.md")))
	assert.Equal(t, first["ci"], readFile(t, filepath.Join(root, ".travis.yml")))
}

func TestGenerateReadmeListsTagsInResolutionOrder(t *testing.T) {
	generator, root := newTestGenerator(t)
	images := []model.Image{
		{Version: "27.1", Template: "alpine/3.9", Branch: "master", Tags: []string{"9.2.0", "latest"}},
		{Version: "27.1", Template: "alpine/3.9", Branch: "master", Target: "prod", Tags: []string{"9.2.0-prod"}},
	}
	require.NoError(t, generator.Generate(images))

	content := readFile(t, filepath.Join(root, "README.md"))
	assert.Contains(t, content, "- [`9.2.0`, `latest`](27.1/alpine/3.9/Dockerfile)\n- [`9.2.0-prod`](27.1/alpine/3.9/Dockerfile)")
}

func TestGenerateCIMatrixGroupsAndSortsTargetlessFirst(t *testing.T) {
	generator, root := newTestGenerator(t)
	// Catalog order: targeted entry first; the rendered row must list the
	// targetless canonical tags before it, keeping their relative order.
	images := []model.Image{
		{Version: "27.1", Template: "alpine/3.9", Branch: "master", Target: "prod", Tags: []string{"prod-one"}},
		{Version: "27.1", Template: "alpine/3.9", Branch: "master", Tags: []string{"dev-one"}},
		{Version: "27.1", Template: "alpine/3.9", Branch: "master", Tags: []string{"dev-two"}},
	}
	require.NoError(t, generator.Generate(images))

	content := readFile(t, filepath.Join(root, ".travis.yml"))
	assert.Contains(t, content, "- IMAGES=dev-one dev-two prod-one")
}

func TestGenerateCIMatrixGroupOrderIsFirstEncounter(t *testing.T) {
	generator, root := newTestGenerator(t)
	images := []model.Image{
		{Version: "27.1", Template: "alpine/3.9", Branch: "master", Tags: []string{"9.2.0"}},
		{Version: "26.4", Template: "alpine/3.9", Branch: "releases/gcc-8", Tags: []string{"8.3.0"}},
		{Version: "27.2", Template: "alpine/3.9", Branch: "master", Tags: []string{"9.2.1"}},
	}
	require.NoError(t, generator.Generate(images))

	content := readFile(t, filepath.Join(root, ".travis.yml"))
	assert.Contains(t, content, "- IMAGES=9.2.0 9.2.1\n- IMAGES=8.3.0")
}

func TestGenerateDirectoryCollisionLastWriteWins(t *testing.T) {
	generator, root := newTestGenerator(t)
	// Two entries share (version, template) but disagree on branch; the
	// shared Dockerfile ends up with whichever was written last.
	images := []model.Image{
		{Version: "27.1", Template: "alpine/3.9", Branch: "first", Tags: []string{"one"}},
		{Version: "27.1", Template: "alpine/3.9", Branch: "second", Tags: []string{"two"}},
	}
	require.NoError(t, generator.Generate(images))

	content := readFile(t, filepath.Join(root, "27.1", "alpine", "3.9", "Dockerfile"))
	assert.Contains(t, content, "git checkout second")
}
