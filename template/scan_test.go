package template_test

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"ccb/template"
)

func writeFile(t *testing.T, root string, parts ...string) {
	t.Helper()
	name := parts[len(parts)-2]
	content := parts[len(parts)-1]
	dir := filepath.Join(append([]string{root}, parts[:len(parts)-2]...)...)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestParseMeta(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantTitle string
		wantHome  bool
	}{
		{"full", "<!-- CANVAS_META\ntitle: Welcome!\nhome: true\n-->\n<html>", "Welcome!", true},
		{"title only", "<!-- CANVAS_META\ntitle: Lesson 1\n-->", "Lesson 1", false},
		{"home false", "<!-- CANVAS_META\ntitle: X\nhome: false\n-->", "X", false},
		{"absent", "<html><body></body></html>", "", false},
		{"unknown keys ignored", "<!-- CANVAS_META\ntitle: X\nbanner: blue\n-->", "X", false},
		{"title with colon", "<!-- CANVAS_META\ntitle: Unit 1: Basics\n-->", "Unit 1: Basics", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			meta := template.ParseMeta([]byte(tc.in))
			if meta.Title != tc.wantTitle {
				t.Errorf("title: got %q, want %q", meta.Title, tc.wantTitle)
			}
			if meta.Home != tc.wantHome {
				t.Errorf("home: got %v, want %v", meta.Home, tc.wantHome)
			}
		})
	}
}

func TestScan_FullTemplate(t *testing.T) {
	root := filepath.Join(t.TempDir(), "biology-101")

	writeFile(t, root, "wiki_content", "welcome.html",
		"<!-- CANVAS_META\ntitle: Welcome\nhome: true\n--><html><body><h1>Hi</h1></body></html>")
	writeFile(t, root, "wiki_content", "lesson-10.html",
		"<!-- CANVAS_META\ntitle: Lesson Ten\n--><html><body></body></html>")
	writeFile(t, root, "wiki_content", "lesson-2.html",
		"<html><body></body></html>")
	writeFile(t, root, "css", "canvas-course.css", "p { color: red; }")
	writeFile(t, root, "web_resources", "syllabus.pdf", "%PDF")
	writeFile(t, root, "web_resources/docs", "plan.pdf", "%PDF")
	writeFile(t, root, "quizzes", "quiz-1.json",
		`{"title": "Quiz 1", "questions": [{"type": "true_false", "text": "2+2=4?", "points": 1, "answers": [{"text": "True", "correct": true}, {"text": "False"}]}]}`)
	writeFile(t, root, "assignments", "essay.json",
		`{"title": "Essay", "description": "<p>Write</p>", "points": 10}`)
	writeFile(t, root, "rubrics", "essay-rubric.json",
		`{"title": "Essay Rubric", "criteria": [{"description": "Clarity", "ratings": [{"description": "Good", "points": 5}, {"description": "Poor", "points": 1}]}]}`)
	writeFile(t, root, ".", "modules.json",
		`{"modules": [{"title": "Week 1", "items": [{"type": "page", "name": "welcome.html"}, {"type": "quiz", "name": "quiz-1.json"}]}]}`)

	tpl, err := template.Scan(root, zap.NewNop())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	// course defaults derived from directory name
	if tpl.Course.Title != "Biology 101" {
		t.Errorf("course title: got %q", tpl.Course.Title)
	}
	if tpl.Course.Code != "BIOLOGY-101" {
		t.Errorf("course code: got %q", tpl.Course.Code)
	}
	if tpl.Course.DefaultView != "wiki" {
		t.Errorf("default view: got %q, home page should force wiki", tpl.Course.DefaultView)
	}

	// natural order puts lesson-2 before lesson-10
	if len(tpl.Pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(tpl.Pages))
	}
	if tpl.Pages[0].Filename != "lesson-2.html" || tpl.Pages[1].Filename != "lesson-10.html" {
		t.Errorf("pages not naturally ordered: %s, %s", tpl.Pages[0].Filename, tpl.Pages[1].Filename)
	}

	home := tpl.HomePage()
	if home == nil || home.Filename != "welcome.html" {
		t.Fatalf("expected welcome.html as home page, got %+v", home)
	}
	if home.URL != "welcome" {
		t.Errorf("home url slug: got %q", home.URL)
	}
	if home.Identifier == "" || home.Identifier[0] != 'g' || len(home.Identifier) != 33 {
		t.Errorf("unexpected identifier format: %q", home.Identifier)
	}

	// page without meta falls back to file name
	if tpl.Pages[0].Title != "lesson-2" {
		t.Errorf("fallback title: got %q", tpl.Pages[0].Title)
	}

	if len(tpl.Stylesheet) == 0 {
		t.Error("stylesheet not scanned")
	}
	if len(tpl.Resources) != 2 {
		t.Fatalf("expected 2 resources, got %d", len(tpl.Resources))
	}
	if tpl.Resources[0].Path != "docs/plan.pdf" && tpl.Resources[1].Path != "docs/plan.pdf" {
		t.Errorf("nested resource path missing: %+v", tpl.Resources)
	}

	if len(tpl.Quizzes) != 1 || tpl.Quizzes[0].PointsPossible() != 1 {
		t.Errorf("quiz not loaded: %+v", tpl.Quizzes)
	}
	if len(tpl.Assignments) != 1 || tpl.Assignments[0].Points != 10 {
		t.Errorf("assignment not loaded: %+v", tpl.Assignments)
	}
	if len(tpl.Rubrics) != 1 || tpl.Rubrics[0].PointsPossible() != 5 {
		t.Errorf("rubric not loaded: %+v", tpl.Rubrics)
	}
	if len(tpl.Modules) != 1 || len(tpl.Modules[0].Items) != 2 {
		t.Errorf("modules not loaded: %+v", tpl.Modules)
	}
}

func TestScan_LinkTable(t *testing.T) {
	root := filepath.Join(t.TempDir(), "c")
	writeFile(t, root, "wiki_content", "lesson-1.html",
		"<!-- CANVAS_META\ntitle: Lesson One\n--><html><body></body></html>")
	writeFile(t, root, "web_resources", "syllabus.pdf", "x")
	writeFile(t, root, "quizzes", "q.json", `{"title": "Q"}`)

	tpl, err := template.Scan(root, zap.NewNop())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	links := tpl.LinkTable()

	if got := links["lesson-1.html"]; got != "page:lesson-one" {
		t.Errorf("page key: got %q", got)
	}
	if got := links["lesson-1"]; got != "page:lesson-one" {
		t.Errorf("extension-stripped page key: got %q", got)
	}
	if got := links["web_resources/syllabus.pdf"]; got != "file:syllabus.pdf" {
		t.Errorf("resource key: got %q", got)
	}
	if got := links["quizzes/q.json"]; got != "quiz:"+tpl.Quizzes[0].Identifier {
		t.Errorf("quiz key: got %q", got)
	}

	// the renderer resolves wiki-relative spellings through the same table
	if v, ok := links.Resolve("../web_resources/syllabus.pdf"); !ok || v != "$IMS-CC-FILEBASE$/syllabus.pdf" {
		t.Errorf("resolve through table: got %q, %v", v, ok)
	}
}

func TestScan_EmptyTemplate(t *testing.T) {
	root := filepath.Join(t.TempDir(), "empty-course")
	if err := os.MkdirAll(root, 0755); err != nil {
		t.Fatal(err)
	}

	tpl, err := template.Scan(root, zap.NewNop())
	if err != nil {
		t.Fatalf("empty template must scan: %v", err)
	}
	if len(tpl.Pages) != 0 || len(tpl.Resources) != 0 {
		t.Errorf("unexpected content: %+v", tpl)
	}
	if tpl.Course.DefaultView != "modules" {
		t.Errorf("default view without home page: got %q", tpl.Course.DefaultView)
	}
}
