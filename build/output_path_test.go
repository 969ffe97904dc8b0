package build

import (
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"ccb/config"
	"ccb/course"
	"ccb/state"
	"ccb/template"
)

func testEnv(nameTemplate string, transliterate bool) *state.LocalEnv {
	return &state.LocalEnv{
		Cfg: &config.Config{
			Version: 1,
			Build: config.BuildConfig{
				OutputNameTemplate:    nameTemplate,
				FileNameTransliterate: transliterate,
			},
		},
		Log: zap.NewNop(),
	}
}

func testTemplate() *template.Template {
	return &template.Template{
		Root: filepath.Join("some", "where", "biology-101"),
		Course: &course.Course{
			Title: "Biology 101",
			Code:  "BIO-101",
		},
	}
}

func TestBuildOutputPath_Default(t *testing.T) {
	got := buildOutputPath(testTemplate(), "/out", testEnv("", false))
	want := filepath.Join("/out", "biology-101.imscc")
	if got != want {
		t.Errorf("buildOutputPath() = %q, want %q", got, want)
	}
}

func TestBuildOutputPath_Template(t *testing.T) {
	got := buildOutputPath(testTemplate(), "/out", testEnv("{{.Code | lower}}", false))
	want := filepath.Join("/out", "bio-101.imscc")
	if got != want {
		t.Errorf("buildOutputPath() = %q, want %q", got, want)
	}
}

func TestBuildOutputPath_TemplateWithExtension(t *testing.T) {
	got := buildOutputPath(testTemplate(), "/out", testEnv("{{.Title}}.imscc", false))
	want := filepath.Join("/out", "Biology 101.imscc")
	if got != want {
		t.Errorf("buildOutputPath() = %q, want %q", got, want)
	}
}

func TestBuildOutputPath_Transliterate(t *testing.T) {
	tpl := testTemplate()
	tpl.Course.Title = "Биология"

	got := buildOutputPath(tpl, "/out", testEnv("{{.Title}}", true))
	base := filepath.Base(got)
	if strings.ContainsAny(base, "Биология") {
		t.Errorf("file name not transliterated: %q", got)
	}
	if !strings.HasSuffix(got, ".imscc") {
		t.Errorf("missing package extension: %q", got)
	}
}

func TestBuildOutputPath_BadTemplateFallsBack(t *testing.T) {
	got := buildOutputPath(testTemplate(), "/out", testEnv("{{.NoSuchField}", false))
	want := filepath.Join("/out", "biology-101.imscc")
	if got != want {
		t.Errorf("broken template must fall back to default name: got %q", got)
	}
}
