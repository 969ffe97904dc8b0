// Package template scans a local course template directory - the editable,
// browser-previewable form of a course - into the inputs the build pipeline
// needs: page sources with metadata, the stylesheet, file resources, content
// definitions, and the link resolution table.
package template

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maruel/natural"
	"go.uber.org/zap"

	"ccb/course"
	"ccb/render"
)

// Directory layout of a course template.
const (
	PagesDir       = "wiki_content"
	StylesheetsDir = "css"
	ResourcesDir   = "web_resources"
	QuizzesDir     = "quizzes"
	AssignmentsDir = "assignments"
	RubricsDir     = "rubrics"
	CourseFile     = "course.json"
	ModulesFile    = "modules.json"
)

// PageSource is a scanned wiki page: its metadata-derived model plus the raw
// template HTML still carrying scaffold, stylesheet links and local paths.
type PageSource struct {
	course.Page
	Raw []byte
}

// Resource is one file under web_resources.
type Resource struct {
	Path       string // forward-slash path relative to web_resources
	Abs        string
	Identifier string
}

// Template is a fully scanned course template.
type Template struct {
	Root        string
	Course      *course.Course
	Pages       []*PageSource
	Stylesheet  []byte
	Resources   []Resource
	Quizzes     []*course.Quiz
	Assignments []*course.Assignment
	Rubrics     []*course.Rubric
	Modules     []course.Module
}

// Scan reads the whole template tree. Pages and resources come back in
// natural filename order so builds are deterministic. Content areas are all
// optional; an empty directory still scans into an empty (but buildable)
// course.
func Scan(root string, log *zap.Logger) (*Template, error) {
	log = log.Named("template")

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if fi, err := os.Stat(abs); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("template directory %s is not accessible", root)
	}

	t := &Template{Root: abs}

	if t.Course, err = course.LoadCourse(filepath.Join(abs, CourseFile), log); err != nil {
		return nil, err
	}
	applyCourseDefaults(t.Course, filepath.Base(abs))

	if err := t.scanPages(log); err != nil {
		return nil, err
	}
	if err := t.scanStylesheets(log); err != nil {
		return nil, err
	}
	if err := t.scanResources(log); err != nil {
		return nil, err
	}

	if t.Quizzes, err = course.LoadQuizzes(filepath.Join(abs, QuizzesDir), log); err != nil {
		return nil, err
	}
	if t.Assignments, err = course.LoadAssignments(filepath.Join(abs, AssignmentsDir), log); err != nil {
		return nil, err
	}
	if t.Rubrics, err = course.LoadRubrics(filepath.Join(abs, RubricsDir), log); err != nil {
		return nil, err
	}
	if t.Modules, err = course.LoadModules(filepath.Join(abs, ModulesFile), log); err != nil {
		return nil, err
	}

	if t.Course.DefaultView == "" {
		t.Course.DefaultView = "modules"
		if t.HomePage() != nil {
			t.Course.DefaultView = "wiki"
		}
	}

	log.Info("Template scanned",
		zap.String("root", abs),
		zap.Int("pages", len(t.Pages)),
		zap.Int("resources", len(t.Resources)),
		zap.Int("quizzes", len(t.Quizzes)),
		zap.Int("assignments", len(t.Assignments)),
		zap.Int("rubrics", len(t.Rubrics)),
		zap.Int("modules", len(t.Modules)))
	return t, nil
}

// HomePage returns the page flagged as course home, nil when there is none.
// The first flagged page wins in natural order.
func (t *Template) HomePage() *PageSource {
	for _, p := range t.Pages {
		if p.Home {
			return p
		}
	}
	return nil
}

func (t *Template) scanPages(log *zap.Logger) error {
	dir := filepath.Join(t.Root, PagesDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug("No wiki_content directory", zap.String("root", t.Root))
			return nil
		}
		return fmt.Errorf("unable to read %s: %w", PagesDir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".html") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Sort(natural.StringSlice(names))

	seenHome := false
	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("unable to read page %s: %w", name, err)
		}
		meta := ParseMeta(raw)
		title := meta.Title
		if title == "" {
			title = strings.TrimSuffix(name, filepath.Ext(name))
		}
		ps := &PageSource{
			Page: course.Page{
				Title:      title,
				Filename:   name,
				URL:        course.PageURL(meta.Title, name),
				Identifier: course.NewIdentifier(),
				Home:       meta.Home && !seenHome,
			},
			Raw: raw,
		}
		if meta.Home {
			if seenHome {
				log.Warn("Multiple pages flagged as home, keeping the first", zap.String("page", name))
			}
			seenHome = true
		}
		t.Pages = append(t.Pages, ps)
		log.Debug("Scanned page", zap.String("file", name), zap.String("title", title), zap.Bool("home", ps.Home))
	}
	return nil
}

// scanStylesheets concatenates css/*.css in natural order into one
// stylesheet; rule document order continues across files.
func (t *Template) scanStylesheets(log *zap.Logger) error {
	dir := filepath.Join(t.Root, StylesheetsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug("No css directory, pages keep inline styles only")
			return nil
		}
		return fmt.Errorf("unable to read %s: %w", StylesheetsDir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".css") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Sort(natural.StringSlice(names))

	var buf bytes.Buffer
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("unable to read stylesheet %s: %w", name, err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
		log.Debug("Scanned stylesheet", zap.String("file", name), zap.Int("bytes", len(data)))
	}
	t.Stylesheet = buf.Bytes()
	return nil
}

func (t *Template) scanResources(log *zap.Logger) error {
	dir := filepath.Join(t.Root, ResourcesDir)
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		log.Debug("No web_resources directory")
		return nil
	}

	var paths []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return fmt.Errorf("unable to scan %s: %w", ResourcesDir, err)
	}
	sort.Sort(natural.StringSlice(paths))

	for _, rel := range paths {
		t.Resources = append(t.Resources, Resource{
			Path:       rel,
			Abs:        filepath.Join(dir, filepath.FromSlash(rel)),
			Identifier: course.NewIdentifier(),
		})
	}
	return nil
}

// LinkTable builds the link resolution table the renderer consumes. Keys
// cover the spellings template authors actually write: page file names (with
// and without extension), web_resources paths, and content definition file
// names for object links.
func (t *Template) LinkTable() render.LinkTable {
	links := make(render.LinkTable)

	for _, p := range t.Pages {
		links[p.Filename] = "page:" + p.URL
		links[strings.TrimSuffix(p.Filename, ".html")] = "page:" + p.URL
	}
	for _, r := range t.Resources {
		links[path.Join(ResourcesDir, r.Path)] = "file:" + r.Path
	}
	for _, q := range t.Quizzes {
		links[path.Join(QuizzesDir, q.Filename)] = "quiz:" + q.Identifier
	}
	for _, a := range t.Assignments {
		links[path.Join(AssignmentsDir, a.Filename)] = "assignment:" + a.Identifier
	}
	return links
}

// applyCourseDefaults fills course fields left empty by course.json the same
// way the scaffolder names new courses: directory name, dashes and
// underscores to spaces, title case.
func applyCourseDefaults(c *course.Course, dirName string) {
	if c.Title == "" {
		c.Title = titleCase(dirName)
	}
	if c.Code == "" {
		c.Code = strings.ToUpper(dirName)
	}
	c.Identifier = course.NewIdentifier()
}

func titleCase(name string) string {
	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(name))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
