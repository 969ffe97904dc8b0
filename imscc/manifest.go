package imscc

import (
	"archive/zip"
	"bytes"
	"strings"

	"github.com/beevik/etree"

	"ccb/course"
)

// refIndex resolves module item names (template file names and resource
// paths) to package identifiers so organization items can point at the
// right resources.
type refIndex struct {
	pages       map[string]*course.Page
	quizzes     map[string]*course.Quiz
	assignments map[string]*course.Assignment
	resources   map[string]*Resource
}

func newRefIndex(c *Content) *refIndex {
	refs := &refIndex{
		pages:       make(map[string]*course.Page),
		quizzes:     make(map[string]*course.Quiz),
		assignments: make(map[string]*course.Assignment),
		resources:   make(map[string]*Resource),
	}
	for _, p := range c.Pages {
		refs.pages[p.Filename] = p
		refs.pages[strings.TrimSuffix(p.Filename, ".html")] = p
	}
	for _, q := range c.Quizzes {
		refs.quizzes[q.Filename] = q
	}
	for _, a := range c.Assignments {
		refs.assignments[a.Filename] = a
	}
	for i := range c.Resources {
		refs.resources[c.Resources[i].Path] = &c.Resources[i]
	}
	return refs
}

// itemRef returns the resource identifier a module item points at, empty for
// headers and unresolvable names.
func (refs *refIndex) itemRef(item *course.ModuleItem) string {
	switch item.Type {
	case "page":
		if p, ok := refs.pages[item.Name]; ok {
			return p.Identifier
		}
	case "quiz":
		if q, ok := refs.quizzes[item.Name]; ok {
			return q.Identifier
		}
	case "assignment":
		if a, ok := refs.assignments[item.Name]; ok {
			return a.Identifier
		}
	case "file":
		name := strings.TrimPrefix(item.Name, resourcesDir+"/")
		if r, ok := refs.resources[name]; ok {
			return r.Identifier
		}
	}
	return ""
}

// itemTitle returns what the module shows for an item: explicit title, then
// the title of the referenced content, then the raw name.
func (refs *refIndex) itemTitle(item *course.ModuleItem) string {
	if item.Title != "" {
		return item.Title
	}
	switch item.Type {
	case "page":
		if p, ok := refs.pages[item.Name]; ok {
			return p.Title
		}
	case "quiz":
		if q, ok := refs.quizzes[item.Name]; ok {
			return q.Title
		}
	case "assignment":
		if a, ok := refs.assignments[item.Name]; ok {
			return a.Title
		}
	}
	return item.Name
}

func writeManifest(zw *zip.Writer, c *Content, refs *refIndex, pretty bool) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	manifest := doc.CreateElement("manifest")
	manifest.CreateAttr("identifier", c.Course.Identifier+"_manifest")
	manifest.CreateAttr("xmlns", "http://www.imsglobal.org/xsd/imsccv1p1/imscp_v1p1")
	manifest.CreateAttr("xmlns:lom", "http://ltsc.ieee.org/xsd/imsccv1p1/LOM/resource")
	manifest.CreateAttr("xmlns:lomimscc", "http://ltsc.ieee.org/xsd/imsccv1p1/LOM/manifest")
	manifest.CreateAttr("xmlns:xsi", "http://www.w3.org/2001/XMLSchema-instance")
	manifest.CreateAttr("xsi:schemaLocation",
		"http://www.imsglobal.org/xsd/imsccv1p1/imscp_v1p1 http://www.imsglobal.org/profile/cc/ccv1p1/ccv1p1_imscp_v1p2_v1p0.xsd")

	metadata := manifest.CreateElement("metadata")
	schema := metadata.CreateElement("schema")
	schema.SetText("IMS Common Cartridge")
	version := metadata.CreateElement("schemaversion")
	version.SetText(ccSchemaVersion)

	lom := metadata.CreateElement("lomimscc:lom")
	general := lom.CreateElement("lomimscc:general")
	title := general.CreateElement("lomimscc:title")
	titleString := title.CreateElement("lomimscc:string")
	titleString.SetText(c.Course.Title)

	buildOrganizations(manifest, c, refs)
	buildResources(manifest, c)

	return writeXMLToZip(zw, manifestName, doc, pretty)
}

func buildOrganizations(manifest *etree.Element, c *Content, refs *refIndex) {
	organizations := manifest.CreateElement("organizations")
	organization := organizations.CreateElement("organization")
	organization.CreateAttr("identifier", "org_1")
	organization.CreateAttr("structure", "rooted-hierarchy")

	root := organization.CreateElement("item")
	root.CreateAttr("identifier", "LearningModules")

	for i := range c.Modules {
		m := &c.Modules[i]
		moduleItem := root.CreateElement("item")
		moduleItem.CreateAttr("identifier", m.Identifier)
		moduleTitle := moduleItem.CreateElement("title")
		moduleTitle.SetText(m.Title)

		for j := range m.Items {
			item := &m.Items[j]
			el := moduleItem.CreateElement("item")
			el.CreateAttr("identifier", item.Identifier)
			if ref := refs.itemRef(item); ref != "" {
				el.CreateAttr("identifierref", ref)
			}
			itemTitle := el.CreateElement("title")
			itemTitle.SetText(refs.itemTitle(item))
		}
	}
}

func buildResources(manifest *etree.Element, c *Content) {
	resources := manifest.CreateElement("resources")

	for _, p := range c.Pages {
		res := resources.CreateElement("resource")
		res.CreateAttr("identifier", p.Identifier)
		res.CreateAttr("type", "webcontent")
		res.CreateAttr("href", pagesDir+"/"+p.URL+".html")
		file := res.CreateElement("file")
		file.CreateAttr("href", pagesDir+"/"+p.URL+".html")
	}

	for _, a := range c.Assignments {
		res := resources.CreateElement("resource")
		res.CreateAttr("identifier", a.Identifier)
		res.CreateAttr("type", "associatedcontent/imscc_xmlv1p1/learning-application-resource")
		res.CreateAttr("href", a.Identifier+"/"+assignmentPageName(a))
		page := res.CreateElement("file")
		page.CreateAttr("href", a.Identifier+"/"+assignmentPageName(a))
		settings := res.CreateElement("file")
		settings.CreateAttr("href", a.Identifier+"/assignment_settings.xml")
	}

	for _, q := range c.Quizzes {
		res := resources.CreateElement("resource")
		res.CreateAttr("identifier", q.Identifier)
		res.CreateAttr("type", "imsqti_xmlv1p2/imscc_xmlv1p1/assessment")
		file := res.CreateElement("file")
		file.CreateAttr("href", q.Identifier+"/"+q.Identifier+".xml")
		dependency := res.CreateElement("dependency")
		dependency.CreateAttr("identifierref", q.Identifier+"_meta")

		meta := resources.CreateElement("resource")
		meta.CreateAttr("identifier", q.Identifier+"_meta")
		meta.CreateAttr("type", "associatedcontent/imscc_xmlv1p1/learning-application-resource")
		meta.CreateAttr("href", q.Identifier+"/assessment_meta.xml")
		metaFile := meta.CreateElement("file")
		metaFile.CreateAttr("href", q.Identifier+"/assessment_meta.xml")
	}

	for i := range c.Resources {
		r := &c.Resources[i]
		res := resources.CreateElement("resource")
		res.CreateAttr("identifier", r.Identifier)
		res.CreateAttr("type", "webcontent")
		res.CreateAttr("href", resourcesDir+"/"+r.Path)
		file := res.CreateElement("file")
		file.CreateAttr("href", resourcesDir+"/"+r.Path)
	}

	settings := resources.CreateElement("resource")
	settings.CreateAttr("identifier", c.Course.Identifier+"_settings")
	settings.CreateAttr("type", "associatedcontent/imscc_xmlv1p1/learning-application-resource")
	settings.CreateAttr("href", settingsDir+"/canvas_export.txt")
	for _, name := range settingsFiles(c) {
		file := settings.CreateElement("file")
		file.CreateAttr("href", settingsDir+"/"+name)
	}
}

func writeXMLToZip(zw *zip.Writer, name string, doc *etree.Document, pretty bool) error {
	if pretty {
		doc.Indent(2)
	}
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return err
	}
	return writeDataToZip(zw, name, buf.Bytes())
}
