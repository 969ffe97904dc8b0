package build

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	texttemplate "text/template"
	"time"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"ccb/config"
	"ccb/state"
	"ccb/template"
)

const packageExt = ".imscc"

// Values holds variables available for output name template expansion.
type Values struct {
	Context string
	Title   string
	Code    string
	Date    string
	Pages   int
	Source  string
}

// buildOutputPath constructs the package path under dst. The configured name
// template drives the file name, falling back to the template directory name
// when expansion fails. Segments are cleaned and optionally transliterated.
func buildOutputPath(tpl *template.Template, dst string, env *state.LocalEnv) string {
	defaultFile := buildDefaultFileName(tpl.Root, env)

	if env.Cfg.Build.OutputNameTemplate == "" {
		return filepath.Join(dst, defaultFile)
	}

	expanded, err := expandOutputNameTemplate(tpl, env)
	if err != nil {
		env.Log.Warn("Unable to prepare output filename", zap.Error(err))
		return filepath.Join(dst, defaultFile)
	}

	name := cleanPathSegment(strings.TrimSuffix(expanded, packageExt), env) + packageExt
	return filepath.Join(dst, name)
}

func buildDefaultFileName(root string, env *state.LocalEnv) string {
	return cleanPathSegment(filepath.Base(root), env) + packageExt
}

func expandOutputNameTemplate(tpl *template.Template, env *state.LocalEnv) (string, error) {
	name := string(config.OutputNameTemplateFieldName)

	t, err := texttemplate.New(name).Funcs(sprig.FuncMap()).Parse(env.Cfg.Build.OutputNameTemplate)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	values := Values{
		Context: name,
		Title:   tpl.Course.Title,
		Code:    tpl.Course.Code,
		Date:    time.Now().Format("2006-01-02"),
		Pages:   len(tpl.Pages),
		Source:  filepath.Base(tpl.Root),
	}

	buf := new(bytes.Buffer)
	if err := t.Execute(buf, values); err != nil {
		return "", err
	}
	expanded := strings.TrimSpace(buf.String())
	if expanded == "" {
		return "", fmt.Errorf("template field %s expanded to nothing", name)
	}
	return expanded, nil
}

func cleanPathSegment(segment string, env *state.LocalEnv) string {
	if env.Cfg.Build.FileNameTransliterate {
		segment = slug.Make(segment)
	}
	return config.CleanFileName(segment)
}
