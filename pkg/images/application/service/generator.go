package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"
	"github.com/pkg/errors"

	"github.com/imageforge/tools/pkg/images/application/model"
)

// DockerfileData carries the placeholder values substituted into a
// Dockerfile template. Configure already includes its leading space.
type DockerfileData struct {
	Branch    string
	Version   string
	Configure string
}

// TemplateStore renders template text and copies named patch sets.
type TemplateStore interface {
	RenderDockerfile(name string, data DockerfileData) (string, error)
	RenderReadme(images string) (string, error)
	RenderCI(matrix string) (string, error)
	CopyPatchSet(name string, destination string) error
}

type Generator interface {
	Generate(images []model.Image) error
}

func NewGenerator(logger applogger.Logger, templates TemplateStore, outputDir string) Generator {
	return &generator{
		logger:    logger,
		templates: templates,
		outputDir: outputDir,
	}
}

type generator struct {
	logger    applogger.Logger
	templates TemplateStore
	outputDir string
}

// Generate rewrites every build context, the README index and the CI matrix.
// All three sub-steps delete and recreate their outputs, so a rerun over an
// unchanged catalog and templates is byte-identical.
func (g generator) Generate(images []model.Image) error {
	start := time.Now()
	defer func() {
		g.logger.Info(fmt.Sprintf("done in %v", time.Since(start).String()))
	}()

	err := g.generateDockerfiles(images)
	if err != nil {
		return err
	}
	err = g.generateReadme(images)
	if err != nil {
		return err
	}
	return g.generateCIMatrix(images)
}

func (g generator) generateDockerfiles(images []model.Image) error {
	for _, image := range images {
		g.logger.Info(fmt.Sprintf("generating build context for \"%v\"...", image.CanonicalTag()))
		directory := filepath.Join(g.outputDir, image.Directory())
		err := recreateDir(directory)
		if err != nil {
			return err
		}
		content, err := g.templates.RenderDockerfile(image.Template, DockerfileData{
			Branch:    image.Branch,
			Version:   image.Version,
			Configure: image.ConfigureSuffix(),
		})
		if err != nil {
			return err
		}
		err = os.WriteFile(filepath.Join(g.outputDir, image.DockerfilePath()), []byte(content), 0o644)
		if err != nil {
			return errors.Wrapf(err, "failed to write dockerfile for %v", image.CanonicalTag())
		}
		if image.Patches != "" {
			err = g.templates.CopyPatchSet(image.Patches, filepath.Join(directory, "patches"))
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (g generator) generateReadme(images []model.Image) error {
	g.logger.Info("generating README.md...")
	entries := make([]string, 0, len(images))
	for _, image := range images {
		tags := make([]string, 0, len(image.Tags))
		for _, tag := range image.Tags {
			tags = append(tags, quoteInline(tag))
		}
		entries = append(entries, fmt.Sprintf("- [%v](%v)", strings.Join(tags, ", "), image.DockerfilePath()))
	}
	content, err := g.templates.RenderReadme(strings.Join(entries, "\n"))
	if err != nil {
		return err
	}
	err = os.WriteFile(filepath.Join(g.outputDir, "README.md"), []byte(content), 0o644)
	return errors.Wrap(err, "failed to write README.md")
}

func (g generator) generateCIMatrix(images []model.Image) error {
	g.logger.Info("generating CI matrix...")
	rows := make([]string, 0, len(images))
	for _, group := range groupForCI(images) {
		tags := make([]string, 0, len(group))
		for _, image := range group {
			tags = append(tags, image.CanonicalTag())
		}
		rows = append(rows, "- IMAGES="+strings.Join(tags, " "))
	}
	content, err := g.templates.RenderCI(strings.Join(rows, "\n"))
	if err != nil {
		return err
	}
	err = os.WriteFile(filepath.Join(g.outputDir, ".travis.yml"), []byte(content), 0o644)
	return errors.Wrap(err, "failed to write CI config")
}

type ciGroupKey struct {
	branch   string
	template string
}

// groupForCI buckets images by (branch, template) in first-encounter order.
// Within a group, images without an explicit target sort before targeted
// ones; ties keep their relative order.
func groupForCI(images []model.Image) [][]model.Image {
	var order []ciGroupKey
	buckets := make(map[ciGroupKey][]model.Image)
	for _, image := range images {
		key := ciGroupKey{branch: image.Branch, template: image.Template}
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], image)
	}
	groups := make([][]model.Image, 0, len(order))
	for _, key := range order {
		group := buckets[key]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Target == "" && group[j].Target != ""
		})
		groups = append(groups, group)
	}
	return groups
}

func quoteInline(s string) string {
	return "`" + s + "`"
}

func recreateDir(directory string) error {
	err := os.RemoveAll(directory)
	if err != nil {
		return errors.Wrapf(err, "failed to remove %v", directory)
	}
	return errors.Wrapf(os.MkdirAll(directory, 0o755), "failed to create %v", directory)
}
