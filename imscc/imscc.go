// Package imscc assembles Common Cartridge course packages the way Canvas
// exports them: imsmanifest.xml plus canvas specific course_settings files,
// wiki pages, assessments, assignments and plain file resources in a single
// zip archive.
package imscc

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	fixzip "github.com/hidez8891/zip"
	"go.uber.org/zap"

	"ccb/course"
)

const (
	manifestName    = "imsmanifest.xml"
	settingsDir     = "course_settings"
	pagesDir        = "wiki_content"
	resourcesDir    = "web_resources"
	ccSchemaVersion = "1.1.0"
)

// Resource is one verbatim file shipped under web_resources.
type Resource struct {
	Path        string // forward-slash path relative to web_resources
	Identifier  string
	ContentType string // MIME type recorded in files_meta.xml
	Data        []byte
}

// Content is everything going into one package. Pages carry rendered bodies,
// all identifiers are assigned before generation. Order of slices is the
// order of entries in the archive, generation itself never reorders.
type Content struct {
	Course      *course.Course
	Pages       []*course.Page
	Resources   []Resource
	Quizzes     []*course.Quiz
	Assignments []*course.Assignment
	Rubrics     []*course.Rubric
	Modules     []course.Module
}

// Generate writes the package to outputPath. The archive is assembled in a
// temporary file first and moved into place only when complete. When fixZip
// is set the finished archive is rewritten without zip data descriptors.
func Generate(ctx context.Context, c *Content, outputPath string, fixZip, pretty bool, log *zap.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	log.Info("Generating package", zap.String("course", c.Course.Title), zap.String("output", outputPath))

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(outputPath), ".ccb-*.imscc")
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	defer tmp.Close()

	zw := zip.NewWriter(tmp)
	defer zw.Close()

	refs := newRefIndex(c)

	if err := writeManifest(zw, c, refs, pretty); err != nil {
		return fmt.Errorf("unable to write manifest: %w", err)
	}
	if err := writeCourseSettings(zw, c, pretty); err != nil {
		return fmt.Errorf("unable to write course settings: %w", err)
	}
	for _, p := range c.Pages {
		if err := writePage(zw, p); err != nil {
			return fmt.Errorf("unable to write page %s: %w", p.Filename, err)
		}
	}
	for _, a := range c.Assignments {
		if err := writeAssignment(zw, c, a, pretty); err != nil {
			return fmt.Errorf("unable to write assignment %s: %w", a.Filename, err)
		}
	}
	for _, q := range c.Quizzes {
		if err := writeQuiz(zw, q, pretty); err != nil {
			return fmt.Errorf("unable to write quiz %s: %w", q.Filename, err)
		}
	}
	for _, r := range c.Resources {
		if err := writeDataToZip(zw, resourcesDir+"/"+r.Path, r.Data); err != nil {
			return fmt.Errorf("unable to write resource %s: %w", r.Path, err)
		}
	}

	// make sure buffers are flushed before continuing
	if err := zw.Close(); err != nil {
		return fmt.Errorf("unable to close output archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("unable to finalize output file: %w", err)
	}

	if fixZip {
		return copyZipWithoutDataDescriptors(tmpName, outputPath)
	}
	return copyFile(tmpName, outputPath)
}

func writeDataToZip(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func copyZipWithoutDataDescriptors(from, to string) error {

	out, err := os.Create(to)
	if err != nil {
		return fmt.Errorf("unable to create target file (%s): %w", to, err)
	}
	defer out.Close()

	r, err := fixzip.OpenReader(from)
	if err != nil {
		return fmt.Errorf("unable to read archive file (%s): %w", from, err)
	}
	defer r.Close()

	w := fixzip.NewWriter(out)
	defer w.Close()

	for _, file := range r.File {
		// unset data descriptor flag.
		file.Flags &= ^fixzip.FlagDataDescriptor

		// copy zip entry
		if err := w.CopyFile(file); err != nil {
			return fmt.Errorf("unable to write target file (%s): %w", to, err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {

	sourceFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer sourceFile.Close()

	destinationFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer destinationFile.Close()

	if _, err = io.Copy(destinationFile, sourceFile); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}

	if err = destinationFile.Close(); err != nil {
		return fmt.Errorf("failed to close destination file: %w", err)
	}
	return nil
}
