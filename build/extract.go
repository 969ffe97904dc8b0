package build

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"ccb/archive"
	"ccb/state"
	"ccb/template"
)

// Extract unpacks a course package back into an editable template directory:
// wiki pages get their metadata comment and a stylesheet link back, symbolic
// references become relative local links again. Inlined styles stay inlined,
// the original stylesheet cannot be recovered.
func Extract(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("extract")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no package file has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		dst = strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}

	env.Overwrite = cmd.Bool("overwrite")
	if !env.Overwrite {
		if _, err := os.Stat(dst); err == nil {
			return fmt.Errorf("destination already exists: %s (use --overwrite)", dst)
		}
	}

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for packages from old authoring tools
	cp := cmd.String("force-zip-cp")
	if cp == "" {
		cp = env.Cfg.Extract.CodePage
	}
	if len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
		}
	}

	log.Info("Extract starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Extract completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	count := 0
	err = archive.Walk(src, "", func(_ string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := f.FileHeader.Name
		if env.CodePage != nil && f.FileHeader.NonUTF8 {
			if n, err := env.CodePage.NewDecoder().String(name); err == nil {
				name = n
			} else {
				log.Warn("Unable to convert archive name from specified encoding", zap.String("path", name), zap.Error(err))
			}
		}

		switch {
		case strings.HasPrefix(name, "wiki_content/") && strings.HasSuffix(name, ".html"):
			data, err := readZipFile(f)
			if err != nil {
				return err
			}
			page, err := restorePage(data, env.Cfg.Extract.StylesheetName, log.With(zap.String("page", name)))
			if err != nil {
				log.Warn("Unable to restore page, copying verbatim", zap.String("page", name), zap.Error(err))
				page = data
			}
			count++
			return writeExtracted(dst, name, page)

		case strings.HasPrefix(name, "web_resources/"):
			data, err := readZipFile(f)
			if err != nil {
				return err
			}
			count++
			return writeExtracted(dst, name, data)

		case name == "course_settings/course_settings.xml":
			data, err := readZipFile(f)
			if err != nil {
				return err
			}
			courseJSON, err := restoreCourseJSON(data)
			if err != nil {
				log.Warn("Unable to restore course.json", zap.Error(err))
				return nil
			}
			count++
			return writeExtracted(dst, template.CourseFile, courseJSON)
		}

		log.Debug("Skipping package entry", zap.String("entry", name))
		return nil
	})
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("nothing recognizable in package %s", src)
	}

	// placeholder, styles are baked into the pages
	sheet := "/* Styles were inlined when this package was built. */\n"
	if err := writeExtracted(dst, template.StylesheetsDir+"/"+env.Cfg.Extract.StylesheetName, []byte(sheet)); err != nil {
		return err
	}

	log.Info("Template recreated", zap.String("destination", dst), zap.Int("files", count))
	return nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func writeExtracted(dst, name string, data []byte) error {
	path := filepath.Join(dst, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
