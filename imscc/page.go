package imscc

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"

	"ccb/course"
)

// writePage emits one wiki page in the shape Canvas expects: full html
// document with identifying meta tags in the head and the rendered fragment
// as the body. Body goes in verbatim, it is already escaped and inlined.
func writePage(zw *zip.Writer, p *course.Page) error {
	var buf bytes.Buffer

	buf.WriteString("<html>\n<head>\n")
	buf.WriteString("<meta http-equiv=\"Content-Type\" content=\"text/html; charset=utf-8\">\n")
	fmt.Fprintf(&buf, "<title>%s</title>\n", html.EscapeString(p.Title))
	fmt.Fprintf(&buf, "<meta name=\"identifier\" content=\"%s\">\n", p.Identifier)
	buf.WriteString("<meta name=\"editing_roles\" content=\"teachers\">\n")
	buf.WriteString("<meta name=\"workflow_state\" content=\"active\">\n")
	if p.Home {
		buf.WriteString("<meta name=\"front_page\" content=\"true\">\n")
	}
	buf.WriteString("</head>\n<body>\n")
	buf.WriteString(p.Body)
	buf.WriteString("\n</body>\n</html>\n")

	return writeDataToZip(zw, pagesDir+"/"+p.URL+".html", buf.Bytes())
}
