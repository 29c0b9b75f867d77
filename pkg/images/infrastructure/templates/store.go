package templates

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/pkg/errors"

	"github.com/imageforge/tools/pkg/images/application/service"
)

const (
	dockerfileName = "Dockerfile"
	readmeName     = "README.md"
	ciName         = ".travis.yml"
)

// TemplateError reports a template file that is missing, unreadable or does
// not parse.
type TemplateError struct {
	Name string
	Err  error
}

func (e TemplateError) Error() string {
	return fmt.Sprintf("template %v: %v", e.Name, e.Err)
}

func (e TemplateError) Unwrap() error {
	return e.Err
}

// NewStore serves template text from a directory tree laid out as
// <root>/<template>/Dockerfile plus <root>/README.md and <root>/.travis.yml,
// with named patch sets as plain file directories under <root>.
func NewStore(root string) service.TemplateStore {
	return &store{
		root: root,
	}
}

type store struct {
	root string
}

func (s store) RenderDockerfile(name string, data service.DockerfileData) (string, error) {
	return s.render(name, filepath.Join(s.root, name, dockerfileName), data)
}

func (s store) RenderReadme(images string) (string, error) {
	return s.render(readmeName, filepath.Join(s.root, readmeName), struct{ Images string }{Images: images})
}

func (s store) RenderCI(matrix string) (string, error) {
	return s.render(ciName, filepath.Join(s.root, ciName), struct{ Matrix string }{Matrix: matrix})
}

func (s store) render(name string, path string, data any) (string, error) {
	parsed, err := template.New(filepath.Base(path)).Funcs(sprig.TxtFuncMap()).ParseFiles(path)
	if err != nil {
		return "", TemplateError{Name: name, Err: err}
	}
	var buf bytes.Buffer
	err = parsed.Execute(&buf, data)
	if err != nil {
		return "", TemplateError{Name: name, Err: err}
	}
	return buf.String(), nil
}

// CopyPatchSet copies every file of the named patch set into destination,
// creating it when needed. Patch files are opaque, they are not rendered.
func (s store) CopyPatchSet(name string, destination string) error {
	source := filepath.Join(s.root, name)
	entries, err := os.ReadDir(source)
	if err != nil {
		return TemplateError{Name: name, Err: err}
	}
	err = os.MkdirAll(destination, 0o755)
	if err != nil {
		return errors.Wrapf(err, "failed to create %v", destination)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		err = copyFile(filepath.Join(source, entry.Name()), filepath.Join(destination, entry.Name()))
		if err != nil {
			return errors.Wrapf(err, "failed to copy patch %v", entry.Name())
		}
	}
	return nil
}

func copyFile(src string, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
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
