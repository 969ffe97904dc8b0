package imscc

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/beevik/etree"
	"github.com/gosimple/slug"

	"ccb/course"
)

func assignmentPageName(a *course.Assignment) string {
	return slug.Make(a.Title) + ".html"
}

// writeAssignment emits the assignment description page and its canvas
// settings into the assignment's identifier directory.
func writeAssignment(zw *zip.Writer, c *Content, a *course.Assignment, pretty bool) error {
	var buf bytes.Buffer
	buf.WriteString("<html>\n<head>\n")
	buf.WriteString("<meta http-equiv=\"Content-Type\" content=\"text/html; charset=utf-8\">\n")
	fmt.Fprintf(&buf, "<title>Assignment: %s</title>\n", html.EscapeString(a.Title))
	buf.WriteString("</head>\n<body>\n")
	buf.WriteString(a.Description)
	buf.WriteString("\n</body>\n</html>\n")

	if err := writeDataToZip(zw, a.Identifier+"/"+assignmentPageName(a), buf.Bytes()); err != nil {
		return err
	}
	return writeXMLToZip(zw, a.Identifier+"/assignment_settings.xml", assignmentSettingsDoc(c, a), pretty)
}

func assignmentSettingsDoc(c *Content, a *course.Assignment) *etree.Document {
	doc, root := canvasDoc("assignment")
	root.CreateAttr("identifier", a.Identifier)

	root.CreateElement("title").SetText(a.Title)
	root.CreateElement("points_possible").SetText(formatPoints(a.Points))
	root.CreateElement("grading_type").SetText("points")
	root.CreateElement("workflow_state").SetText("published")
	root.CreateElement("submission_types").SetText(strings.Join(a.SubmissionTypes, ","))
	root.CreateElement("assignment_group_identifierref").SetText(c.Course.Identifier + "_assignments")

	if r := rubricFor(c, a); r != nil {
		root.CreateElement("rubric_identifierref").SetText(r.Identifier)
		root.CreateElement("rubric_use_for_grading").SetText("true")
	}
	return doc
}
