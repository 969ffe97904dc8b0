package build

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"ccb/course"
	"ccb/render"
)

// restorePage turns a packaged wiki page back into a template page: metadata
// comment up front, stylesheet link in the head, symbolic references mapped
// back to relative local links.
func restorePage(data []byte, stylesheetName string, log *zap.Logger) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unable to parse page: %w", err)
	}

	title, home := pageMeta(doc)
	localizeLinks(doc, log)

	body := findElement(doc, "body")
	if body == nil {
		return nil, fmt.Errorf("page has no body")
	}

	var buf bytes.Buffer
	buf.WriteString("<!-- CANVAS_META\n")
	fmt.Fprintf(&buf, "title: %s\n", title)
	if home {
		buf.WriteString("home: true\n")
	}
	buf.WriteString("-->\n<html>\n<head>\n")
	fmt.Fprintf(&buf, "<link rel=\"stylesheet\" href=\"../css/%s\">\n", stylesheetName)
	buf.WriteString("</head>\n<body>\n")
	for child := body.FirstChild; child != nil; child = child.NextSibling {
		if err := html.Render(&buf, child); err != nil {
			return nil, err
		}
	}
	buf.WriteString("\n</body>\n</html>\n")
	return buf.Bytes(), nil
}

// pageMeta pulls the title and front page flag out of the packaged page head.
func pageMeta(doc *html.Node) (title string, home bool) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				var name, content string
				for _, a := range n.Attr {
					switch a.Key {
					case "name":
						name = a.Val
					case "content":
						content = a.Val
					}
				}
				if name == "front_page" && strings.EqualFold(content, "true") {
					home = true
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return title, home
}

func localizeLinks(doc *html.Node, log *zap.Logger) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for i, a := range n.Attr {
				if a.Key != "href" && a.Key != "src" {
					continue
				}
				if local := render.Localize(a.Val); local != a.Val {
					n.Attr[i].Val = local
					log.Debug("Reference localized", zap.String("from", a.Val), zap.String("to", local))
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
}

func findElement(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && n.Data == name {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findElement(child, name); found != nil {
			return found
		}
	}
	return nil
}

// restoreCourseJSON rebuilds course.json from canvas course settings.
func restoreCourseJSON(data []byte) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("unable to parse course settings: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("course settings are empty")
	}

	c := course.Course{}
	if el := root.FindElement("title"); el != nil {
		c.Title = el.Text()
	}
	if el := root.FindElement("course_code"); el != nil {
		c.Code = el.Text()
	}
	if el := root.FindElement("default_view"); el != nil {
		c.DefaultView = el.Text()
	}
	if el := root.FindElement("license"); el != nil {
		c.License = el.Text()
	}
	if el := root.FindElement("is_public"); el != nil {
		c.IsPublic = strings.EqualFold(el.Text(), "true")
	}

	out, err := json.MarshalIndent(&c, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
