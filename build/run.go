// Package build implements the ccb subcommands: building a package from a
// course template, creating a new template and unpacking an existing package
// back into editable form.
package build

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/h2non/filetype"
	"github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"ccb/course"
	"ccb/css"
	"ccb/imscc"
	"ccb/render"
	"ccb/state"
	"ccb/template"
)

// Run builds a course package from a template directory.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("build")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no template directory has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.Overwrite = cmd.Bool("overwrite")

	log.Info("Build starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Build completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	tpl, err := template.Scan(src, log)
	if err != nil {
		return fmt.Errorf("unable to scan template: %w", err)
	}
	env.Rpt.StoreData("course.summary", courseSummary(tpl.Course))

	sheet := parseStylesheet(tpl, env, log)
	content, err := assemble(ctx, tpl, sheet, log)
	if err != nil {
		return err
	}

	outputPath := buildOutputPath(tpl, dst, env)
	if !env.Overwrite {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("output file already exists: %s (use --overwrite)", outputPath)
		}
	}

	if err := imscc.Generate(ctx, content, outputPath, env.Cfg.Build.FixZip, env.Cfg.Build.PrettyManifest, log); err != nil {
		return err
	}
	env.Rpt.Store("package.imscc", outputPath)

	log.Info("Package written", zap.String("output", outputPath),
		zap.Int("pages", len(content.Pages)), zap.Int("resources", len(content.Resources)))
	return nil
}

// parseStylesheet parses the concatenated template stylesheets plus the
// optional extra stylesheet from configuration. Parsing never fails, problems
// surface as warnings.
func parseStylesheet(tpl *template.Template, env *state.LocalEnv, log *zap.Logger) *css.Stylesheet {
	data := tpl.Stylesheet
	if env.Cfg.Build.StylesheetPath != "" {
		extra, err := os.ReadFile(env.Cfg.Build.StylesheetPath)
		if err != nil {
			log.Warn("Unable to read additional stylesheet, ignoring",
				zap.String("path", env.Cfg.Build.StylesheetPath), zap.Error(err))
		} else {
			data = append(append([]byte{}, data...), '\n')
			data = append(data, extra...)
		}
	}
	env.Rpt.StoreData("stylesheet.css", data)

	sheet := css.NewParser(log).Parse(data, "template stylesheets")
	for _, w := range sheet.Warnings {
		log.Warn("Stylesheet problem", zap.String("detail", w))
	}
	return sheet
}

// assemble renders every page and collects package content. Rendering
// problems on a single page fail the build, they mean broken input rather
// than tolerable css quirks.
func assemble(ctx context.Context, tpl *template.Template, sheet *css.Stylesheet, log *zap.Logger) (*imscc.Content, error) {
	links := tpl.LinkTable()
	renderer := render.NewRenderer(sheet, links, log)

	var rerr error
	content := &imscc.Content{
		Course:      tpl.Course,
		Quizzes:     tpl.Quizzes,
		Assignments: tpl.Assignments,
		Rubrics:     tpl.Rubrics,
		Modules:     tpl.Modules,
	}

	for _, p := range tpl.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := html.Parse(strings.NewReader(string(p.Raw)))
		if err != nil {
			rerr = multierr.Append(rerr, fmt.Errorf("unable to parse page %s: %w", p.Filename, err))
			continue
		}
		body, err := renderer.Render(doc)
		if err != nil {
			rerr = multierr.Append(rerr, fmt.Errorf("unable to render page %s: %w", p.Filename, err))
			continue
		}
		page := p.Page
		page.Body = body
		content.Pages = append(content.Pages, &page)
		log.Debug("Page rendered", zap.String("file", p.Filename), zap.Int("bytes", len(body)))
	}

	for _, r := range tpl.Resources {
		data, err := os.ReadFile(r.Abs)
		if err != nil {
			rerr = multierr.Append(rerr, fmt.Errorf("unable to read resource %s: %w", r.Path, err))
			continue
		}
		ct := resourceContentType(r.Path, data)
		log.Debug("Resource recognized", zap.String("path", r.Path), zap.String("type", ct))
		content.Resources = append(content.Resources, imscc.Resource{
			Path:        r.Path,
			Identifier:  r.Identifier,
			ContentType: ct,
			Data:        data,
		})
	}

	if rerr != nil {
		return nil, rerr
	}
	return content, nil
}

// resourceContentType sniffs the MIME type from content, falling back to the
// file extension for text formats the sniffer cannot recognize.
func resourceContentType(name string, data []byte) string {
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		if i := strings.IndexByte(ct, ';'); i >= 0 {
			ct = ct[:i]
		}
		return strings.TrimSpace(ct)
	}
	return "application/octet-stream"
}

func courseSummary(c *course.Course) []byte {
	return []byte(fmt.Sprintf("title: %s\ncode: %s\ndefault_view: %s\n", c.Title, c.Code, c.DefaultView))
}
