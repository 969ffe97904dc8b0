package build

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	texttemplate "text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"ccb/state"
	"ccb/template"
)

//go:embed seed
var seedFS embed.FS

// seedValues feeds the templated seed files.
type seedValues struct {
	Title string
	Code  string
}

// Create materializes a starter course template in a new directory. An
// existing directory is never touched.
func Create(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("create")

	dst := cmd.Args().Get(0)
	if len(dst) == 0 {
		return errors.New("no template directory has been specified")
	}
	dst, err := filepath.Abs(dst)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("directory already exists: %s", dst)
	}

	dirName := filepath.Base(dst)
	values := seedValues{
		Title: titleCaseDirName(dirName),
		Code:  strings.ToUpper(dirName),
	}

	for _, dir := range []string{
		template.PagesDir,
		template.StylesheetsDir,
		template.ResourcesDir,
		template.QuizzesDir,
		template.AssignmentsDir,
		template.RubricsDir,
	} {
		if err := os.MkdirAll(filepath.Join(dst, dir), 0755); err != nil {
			return fmt.Errorf("unable to create %s: %w", dir, err)
		}
	}

	files := []struct {
		seed string
		dst  string
	}{
		{"seed/welcome.html", template.PagesDir + "/welcome.html"},
		{"seed/canvas-course.css", template.StylesheetsDir + "/canvas-course.css"},
		{"seed/modules.json", template.ModulesFile},
		{"seed/course.json.tmpl", template.CourseFile},
		{"seed/README.md.tmpl", "README.md"},
	}
	for _, f := range files {
		data, err := seedFS.ReadFile(f.seed)
		if err != nil {
			return fmt.Errorf("unable to read seed %s: %w", f.seed, err)
		}
		if strings.HasSuffix(f.seed, ".tmpl") {
			if data, err = expandSeed(f.seed, data, values); err != nil {
				return err
			}
		}
		path := filepath.Join(dst, filepath.FromSlash(f.dst))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("unable to write %s: %w", f.dst, err)
		}
		log.Debug("Seed file written", zap.String("file", f.dst))
	}

	log.Info("Template created", zap.String("destination", dst), zap.String("title", values.Title))
	return nil
}

func expandSeed(name string, data []byte, values seedValues) ([]byte, error) {
	t, err := texttemplate.New(name).Funcs(sprig.FuncMap()).Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("unable to parse seed %s: %w", name, err)
	}
	buf := new(bytes.Buffer)
	if err := t.Execute(buf, values); err != nil {
		return nil, fmt.Errorf("unable to expand seed %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func titleCaseDirName(name string) string {
	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(name))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
