package imscc

import (
	"archive/zip"
	"path"
	"strconv"

	"github.com/beevik/etree"

	"ccb/course"
)

const canvasNS = "http://canvas.instructure.com/xsd/cccv1p0"

// settingsFiles lists course_settings entries in the order they are written,
// the manifest declares the same set.
func settingsFiles(c *Content) []string {
	names := []string{
		"course_settings.xml",
		"module_meta.xml",
		"assignment_groups.xml",
		"files_meta.xml",
	}
	if len(c.Rubrics) > 0 {
		names = append(names, "rubrics.xml")
	}
	return append(names, "canvas_export.txt")
}

func writeCourseSettings(zw *zip.Writer, c *Content, pretty bool) error {
	if err := writeXMLToZip(zw, settingsDir+"/course_settings.xml", courseSettingsDoc(c), pretty); err != nil {
		return err
	}
	if err := writeXMLToZip(zw, settingsDir+"/module_meta.xml", moduleMetaDoc(c), pretty); err != nil {
		return err
	}
	if err := writeXMLToZip(zw, settingsDir+"/assignment_groups.xml", assignmentGroupsDoc(c), pretty); err != nil {
		return err
	}
	if err := writeXMLToZip(zw, settingsDir+"/files_meta.xml", filesMetaDoc(c), pretty); err != nil {
		return err
	}
	if len(c.Rubrics) > 0 {
		if err := writeXMLToZip(zw, settingsDir+"/rubrics.xml", rubricsDoc(c), pretty); err != nil {
			return err
		}
	}
	// marker file canvas looks for to recognize its own package flavor
	return writeDataToZip(zw, settingsDir+"/canvas_export.txt", []byte("Q: What did the panda say when he was forced out of his natural habitat?\nA: This is un-bear-able\n"))
}

func canvasDoc(rootName string) (*etree.Document, *etree.Element) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement(rootName)
	root.CreateAttr("xmlns", canvasNS)
	root.CreateAttr("xmlns:xsi", "http://www.w3.org/2001/XMLSchema-instance")
	return doc, root
}

func courseSettingsDoc(c *Content) *etree.Document {
	doc, root := canvasDoc("course")
	root.CreateAttr("identifier", c.Course.Identifier)

	root.CreateElement("title").SetText(c.Course.Title)
	root.CreateElement("course_code").SetText(c.Course.Code)
	root.CreateElement("default_view").SetText(c.Course.DefaultView)
	if c.Course.License != "" {
		root.CreateElement("license").SetText(c.Course.License)
	}
	root.CreateElement("is_public").SetText(strconv.FormatBool(c.Course.IsPublic))

	for _, p := range c.Pages {
		if p.Home {
			root.CreateElement("front_page_identifier").SetText(p.Identifier)
			break
		}
	}
	return doc
}

func moduleMetaDoc(c *Content) *etree.Document {
	doc, root := canvasDoc("modules")
	refs := newRefIndex(c)

	for i := range c.Modules {
		m := &c.Modules[i]
		module := root.CreateElement("module")
		module.CreateAttr("identifier", m.Identifier)
		module.CreateElement("title").SetText(m.Title)
		module.CreateElement("workflow_state").SetText("active")
		module.CreateElement("position").SetText(strconv.Itoa(i + 1))

		items := module.CreateElement("items")
		for j := range m.Items {
			item := &m.Items[j]
			el := items.CreateElement("item")
			el.CreateAttr("identifier", item.Identifier)
			el.CreateElement("content_type").SetText(contentType(item.Type))
			if ref := refs.itemRef(item); ref != "" {
				el.CreateElement("identifierref").SetText(ref)
			}
			el.CreateElement("title").SetText(refs.itemTitle(item))
			el.CreateElement("indent").SetText(strconv.Itoa(item.Indent))
			el.CreateElement("position").SetText(strconv.Itoa(j + 1))
			el.CreateElement("workflow_state").SetText("active")
		}
	}
	return doc
}

func contentType(itemType string) string {
	switch itemType {
	case "page":
		return "WikiPage"
	case "quiz":
		return "Quizzes::Quiz"
	case "assignment":
		return "Assignment"
	case "file":
		return "Attachment"
	default:
		return "ContextModuleSubHeader"
	}
}

func assignmentGroupsDoc(c *Content) *etree.Document {
	doc, root := canvasDoc("assignmentGroups")

	group := root.CreateElement("assignmentGroup")
	group.CreateAttr("identifier", c.Course.Identifier+"_assignments")
	group.CreateElement("title").SetText("Assignments")
	group.CreateElement("position").SetText("1")
	return doc
}

func filesMetaDoc(c *Content) *etree.Document {
	doc, root := canvasDoc("fileMeta")

	if len(c.Resources) == 0 {
		return doc
	}
	files := root.CreateElement("files")
	for _, r := range c.Resources {
		file := files.CreateElement("file")
		file.CreateAttr("identifier", r.Identifier)
		file.CreateElement("display_name").SetText(path.Base(r.Path))
		file.CreateElement("full_path").SetText(resourcesDir + "/" + r.Path)
		if r.ContentType != "" {
			file.CreateElement("content_type").SetText(r.ContentType)
		}
	}
	return doc
}

func rubricsDoc(c *Content) *etree.Document {
	doc, root := canvasDoc("rubrics")

	for _, r := range c.Rubrics {
		rubric := root.CreateElement("rubric")
		rubric.CreateAttr("identifier", r.Identifier)
		rubric.CreateElement("title").SetText(r.Title)
		rubric.CreateElement("points_possible").SetText(formatPoints(r.PointsPossible()))

		criteria := rubric.CreateElement("criteria")
		for i, cr := range r.Criteria {
			criterion := criteria.CreateElement("criterion")
			criterion.CreateElement("criterion_id").SetText("crit_" + strconv.Itoa(i+1))
			criterion.CreateElement("description").SetText(cr.Description)
			if cr.LongDesc != "" {
				criterion.CreateElement("long_description").SetText(cr.LongDesc)
			}
			ratings := criterion.CreateElement("ratings")
			for j, rt := range cr.Ratings {
				rating := ratings.CreateElement("rating")
				rating.CreateElement("description").SetText(rt.Description)
				rating.CreateElement("points").SetText(formatPoints(rt.Points))
				rating.CreateElement("id").SetText("rat_" + strconv.Itoa(i+1) + "_" + strconv.Itoa(j+1))
			}
		}
	}
	return doc
}

func formatPoints(points float64) string {
	return strconv.FormatFloat(points, 'f', -1, 64)
}

// rubricFor matches an assignment rubric reference against rubric titles and
// file base names.
func rubricFor(c *Content, a *course.Assignment) *course.Rubric {
	if a.RubricRef == "" {
		return nil
	}
	for _, r := range c.Rubrics {
		if r.Title == a.RubricRef {
			return r
		}
		base := r.Filename
		if i := len(base) - len(".json"); i > 0 && base[i:] == ".json" {
			base = base[:i]
		}
		if base == a.RubricRef {
			return r
		}
	}
	return nil
}
