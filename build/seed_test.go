package build

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"ccb/css"
	"ccb/render"
)

// The scaffolded stylesheet must stay inside the supported selector subset,
// a warning here means freshly created courses lose styling silently.
func TestSeedStylesheetFullySupported(t *testing.T) {
	data, err := seedFS.ReadFile("seed/canvas-course.css")
	if err != nil {
		t.Fatalf("unable to read seed stylesheet: %v", err)
	}

	sheet := css.NewParser(zap.NewNop()).Parse(data, "seed")
	for _, w := range sheet.Warnings {
		t.Errorf("seed stylesheet triggers warning: %s", w)
	}
	if len(sheet.Rules) == 0 {
		t.Fatal("seed stylesheet parsed to nothing")
	}

	doc, err := html.Parse(strings.NewReader(`<html><body><table><tr><td>X</td></tr></table></body></html>`))
	if err != nil {
		t.Fatal(err)
	}
	got, err := render.NewRenderer(sheet, render.LinkTable{}, zap.NewNop()).Render(doc)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(got, `<td style="`) {
		t.Errorf("table cell picked up no styles: %s", got)
	}
	if !strings.Contains(got, "border: 1px solid #c7cdd1") {
		t.Errorf("cell border rule not applied: %s", got)
	}
}

func TestResourceContentType(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
	for _, tc := range []struct {
		name string
		data []byte
		want string
	}{
		{"banner.png", png, "image/png"},
		{"styles.css", []byte("td { color: red; }"), "text/css"},
		{"data.bin", []byte("no magic here"), "application/octet-stream"},
	} {
		if got := resourceContentType(tc.name, tc.data); got != tc.want {
			t.Errorf("resourceContentType(%s) = %q, want %q", tc.name, got, tc.want)
		}
	}
}
