package build

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"ccb/config"
	"ccb/state"
	"ccb/template"
)

// runCommand executes a subcommand action the way main wires it up.
func runCommand(t *testing.T, action cli.ActionFunc, flags []cli.Flag, args ...string) error {
	t.Helper()

	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Log = zap.NewNop()

	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("unable to load default configuration: %v", err)
	}
	env.Cfg = cfg

	app := &cli.Command{Name: "test", Action: action, Flags: flags}
	return app.Run(ctx, append([]string{"test"}, args...))
}

func TestCreateAndBuild(t *testing.T) {
	work := t.TempDir()
	tplDir := filepath.Join(work, "intro-to-go")

	if err := runCommand(t, Create, nil, tplDir); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// scaffolded template must scan cleanly and carry a home page
	tpl, err := template.Scan(tplDir, zap.NewNop())
	if err != nil {
		t.Fatalf("scaffolded template does not scan: %v", err)
	}
	if tpl.Course.Title != "Intro To Go" {
		t.Errorf("course title = %q", tpl.Course.Title)
	}
	if tpl.HomePage() == nil {
		t.Error("scaffolded template has no home page")
	}
	if len(tpl.Modules) == 0 {
		t.Error("scaffolded template has no modules")
	}

	// creating over an existing directory must refuse
	if err := runCommand(t, Create, nil, tplDir); err == nil {
		t.Error("create over existing directory must fail")
	}

	outDir := filepath.Join(work, "out")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		t.Fatal(err)
	}

	overwrite := []cli.Flag{&cli.BoolFlag{Name: "overwrite"}}
	if err := runCommand(t, Run, overwrite, tplDir, outDir); err != nil {
		t.Fatalf("build failed: %v", err)
	}

	pkg := filepath.Join(outDir, "intro-to-go.imscc")
	r, err := zip.OpenReader(pkg)
	if err != nil {
		t.Fatalf("package does not open: %v", err)
	}
	defer r.Close()

	var page string
	seen := make(map[string]bool)
	for _, f := range r.File {
		seen[f.Name] = true
		if f.Name == "wiki_content/welcome.html" {
			rc, err := f.Open()
			if err != nil {
				t.Fatal(err)
			}
			data, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				t.Fatal(err)
			}
			page = string(data)
		}
	}

	for _, name := range []string{
		"imsmanifest.xml",
		"course_settings/course_settings.xml",
		"course_settings/module_meta.xml",
		"wiki_content/welcome.html",
	} {
		if !seen[name] {
			t.Errorf("package misses %s", name)
		}
	}

	// scaffold stripped, styles inlined, meta comment gone
	if strings.Contains(page, "CANVAS_META") {
		t.Error("metadata comment leaked into built page")
	}
	if strings.Contains(page, "rel=\"stylesheet\"") && strings.Contains(page, "canvas-course.css") {
		t.Error("stylesheet link leaked into built page")
	}
	if !strings.Contains(page, "style=") {
		t.Error("no styles inlined into built page")
	}

	// without --overwrite the second build must refuse
	if err := runCommand(t, Run, overwrite, tplDir, outDir); err == nil {
		t.Error("build over existing package must fail without --overwrite")
	}
}

func TestBuildThenExtractRoundTrip(t *testing.T) {
	work := t.TempDir()
	tplDir := filepath.Join(work, "roundtrip-course")

	if err := runCommand(t, Create, nil, tplDir); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := runCommand(t, Run, []cli.Flag{&cli.BoolFlag{Name: "overwrite"}}, tplDir, work); err != nil {
		t.Fatalf("build failed: %v", err)
	}

	pkg := filepath.Join(work, "roundtrip-course.imscc")
	dst := filepath.Join(work, "restored")

	flags := []cli.Flag{
		&cli.BoolFlag{Name: "overwrite"},
		&cli.StringFlag{Name: "force-zip-cp"},
	}
	if err := runCommand(t, Extract, flags, pkg, dst); err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	// restored template must scan again
	tpl, err := template.Scan(dst, zap.NewNop())
	if err != nil {
		t.Fatalf("restored template does not scan: %v", err)
	}
	if tpl.HomePage() == nil {
		t.Error("home flag lost in round trip")
	}
	if tpl.Course.Title != "Roundtrip Course" {
		t.Errorf("course title lost in round trip: %q", tpl.Course.Title)
	}

	data, err := os.ReadFile(filepath.Join(dst, "wiki_content", "welcome.html"))
	if err != nil {
		t.Fatalf("restored page missing: %v", err)
	}
	if !strings.Contains(string(data), "CANVAS_META") {
		t.Error("restored page misses metadata comment")
	}
	if !strings.Contains(string(data), "../css/canvas-course.css") {
		t.Error("restored page misses stylesheet link")
	}
}
